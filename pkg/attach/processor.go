package attach

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"sync"

	"github.com/disintegration/imaging"

	"chatd/pkg/logger"
	"chatd/pkg/models"
)

// BlobStore is the attachment-storage collaborator: it persists bytes and
// returns a URL for them. The real implementation lives outside this core.
type BlobStore interface {
	Put(name string, data []byte) (url string, err error)
}

// Processor implements store.AttachmentProcessor. Failures here are
// transient by contract: Process always returns a usable descriptor, and
// the returned error is informational only.
type Processor struct {
	Blobs BlobStore
	// ThumbnailMaxPx bounds the longest edge of generated thumbnails.
	ThumbnailMaxPx int
	// MaxUploadBytes rejects larger payloads before touching the blob store.
	MaxUploadBytes int64
}

// Process classifies the upload, stores the blob, and for images attaches
// a bounded-size JPEG thumbnail. Thumbnail failures are logged and
// swallowed; they never fail the enclosing message create.
func (p *Processor) Process(upload *models.AttachmentUpload) (*models.Attachment, error) {
	desc := &models.Attachment{
		Name: upload.Name,
		Kind: Classify(upload.Name, upload.Data),
		Size: int64(len(upload.Data)),
	}
	if p.MaxUploadBytes > 0 && desc.Size > p.MaxUploadBytes {
		return desc, fmt.Errorf("attachment %s exceeds %d bytes", upload.Name, p.MaxUploadBytes)
	}
	if p.Blobs == nil {
		return desc, fmt.Errorf("no blob store configured")
	}
	url, err := p.Blobs.Put(upload.Name, upload.Data)
	if err != nil {
		return desc, fmt.Errorf("blob store put: %w", err)
	}
	desc.URL = url

	if desc.Kind == models.KindImage {
		if thumb, terr := p.thumbnail(upload); terr != nil {
			logger.Warn("thumbnail_failed", "name", upload.Name, "error", terr)
		} else {
			desc.Thumbnail = thumb
		}
	}
	return desc, nil
}

func (p *Processor) thumbnail(upload *models.AttachmentUpload) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	max := p.ThumbnailMaxPx
	if max <= 0 {
		max = 320
	}
	thumb := imaging.Fit(img, max, max, imaging.Lanczos)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return p.Blobs.Put("thumb_"+upload.Name+".jpg", buf.Bytes())
}

// MemoryBlobs is an in-process BlobStore for tests and single-node runs.
type MemoryBlobs struct {
	mu sync.Mutex
	m  map[string][]byte
	n  int
}

// NewMemoryBlobs returns an empty in-memory blob store.
func NewMemoryBlobs() *MemoryBlobs { return &MemoryBlobs{m: make(map[string][]byte)} }

// Put stores data and returns a mem:// URL unique per call.
func (b *MemoryBlobs) Put(name string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	key := fmt.Sprintf("mem://attachments/%d/%s", b.n, name)
	b.m[key] = append([]byte(nil), data...)
	return key, nil
}

// Get returns stored bytes for a URL; used by tests.
func (b *MemoryBlobs) Get(url string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.m[url]
	return d, ok
}
