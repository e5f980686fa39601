package store

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"chatd/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

// seq reduces key collisions when multiple records share the same
// nanosecond timestamp.
var seq uint64

// keyLocks serializes read-modify-write cycles on a single record (read_by
// unions, conversation timestamp bumps, direct-pair creation). Pebble has
// no transactions across point reads, so the store is the single writer
// and stripes by key.
var keyLocks [64]sync.Mutex

func lockKey(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &keyLocks[h.Sum32()%uint32(len(keyLocks))]
}

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// orderedSuffix returns a sortable "<ts>-<seq>" component for index keys.
func orderedSuffix(ts int64) string {
	s := atomic.AddUint64(&seq, 1)
	return fmt.Sprintf("%020d-%06d", ts, s)
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func get(key string) ([]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, nil
}

func set(key string, val []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Set([]byte(key), val, pebble.Sync)
}

func del(key string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Delete([]byte(key), pebble.Sync)
}

// scan calls fn for every key with the given prefix in key order. fn
// returning false stops the scan.
func scan(prefix string, fn func(key string, val []byte) bool) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	lo := []byte(prefix)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: prefixUpperBound(lo)})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		k := string(iter.Key())
		v := append([]byte(nil), iter.Value()...)
		if !fn(k, v) {
			break
		}
	}
	return iter.Error()
}
