package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"chatd/pkg/config"
	"chatd/pkg/logger"
)

// Backbone mirrors broadcasts over a zeromq pub/sub channel so that a
// deployment with several server processes still reaches every live
// connection. It satisfies Router: local delivery is unchanged, remote
// processes re-deliver to their own connections. The per-topic ordering
// guarantee stops at the process boundary.
type Backbone struct {
	local *Hub
	pub   *zmq.Socket
	sub   *zmq.Socket

	pubMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBackbone binds the publish endpoint and subscribes to every peer.
func NewBackbone(local *Hub, cfg config.BackboneConfig) (*Backbone, error) {
	pub, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("backbone pub socket: %w", err)
	}
	if err := pub.Bind(cfg.Publish); err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("backbone bind %s: %w", cfg.Publish, err)
	}
	sub, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("backbone sub socket: %w", err)
	}
	for _, peer := range cfg.Peers {
		if err := sub.Connect(peer); err != nil {
			_ = pub.Close()
			_ = sub.Close()
			return nil, fmt.Errorf("backbone connect %s: %w", peer, err)
		}
	}
	if err := sub.SetSubscribe(""); err != nil {
		_ = pub.Close()
		_ = sub.Close()
		return nil, err
	}
	logger.Info("backbone_ready", "publish", cfg.Publish, "peers", len(cfg.Peers))
	return &Backbone{local: local, pub: pub, sub: sub, done: make(chan struct{})}, nil
}

// Run receives peer events until ctx is canceled.
func (b *Backbone) Run(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	defer close(b.done)

	poller := zmq.NewPoller()
	poller.Add(b.sub, zmq.POLLIN)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		polled, err := poller.Poll(500 * time.Millisecond)
		if err != nil {
			logger.Warn("backbone_poll_failed", "error", err)
			continue
		}
		if len(polled) == 0 {
			continue
		}
		parts, err := b.sub.RecvMessageBytes(0)
		if err != nil {
			logger.Warn("backbone_recv_failed", "error", err)
			continue
		}
		if len(parts) != 2 {
			logger.Warn("backbone_bad_frame", "parts", len(parts))
			continue
		}
		backboneReceived.Inc()
		b.local.Deliver(string(parts[0]), parts[1])
	}
}

// Close stops the receive loop and closes both sockets.
func (b *Backbone) Close() error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	_ = b.sub.Close()
	return b.pub.Close()
}

// Join registers a connection locally; membership is never shared across
// processes.
func (b *Backbone) Join(topic string, c Conn) { b.local.Join(topic, c) }

// Leave removes the local registration.
func (b *Backbone) Leave(topic string, c Conn) { b.local.Leave(topic, c) }

// LeaveAll removes the connection from every local topic.
func (b *Backbone) LeaveAll(c Conn) { b.local.LeaveAll(c) }

// Broadcast delivers locally and mirrors the event to peer processes.
func (b *Backbone) Broadcast(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("broadcast_marshal_failed", "topic", topic, "error", err)
		return
	}
	b.local.Deliver(topic, payload)
	b.pubMu.Lock()
	_, err = b.pub.SendMessage(topic, payload)
	b.pubMu.Unlock()
	if err != nil {
		logger.Warn("backbone_publish_failed", "topic", topic, "error", err)
		return
	}
	backbonePublished.Inc()
}

// Subscribers reports local subscribers only; peers account for their own.
func (b *Backbone) Subscribers(topic string) int { return b.local.Subscribers(topic) }
