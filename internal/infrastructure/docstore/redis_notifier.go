package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChangeChannel is the Pub/Sub channel carrying document changes
const DefaultChangeChannel = "pos:docstore:changes"

const notifierCloseTimeout = 5 * time.Second

// RedisChangeNotifier publishes changes over Redis Pub/Sub so that live
// queries on every server instance see writes made by the others.
// Received changes are dispatched to local listeners through a ChangeHub.
type RedisChangeNotifier struct {
	client   *redis.Client
	channel  string
	hub      *ChangeHub
	logger   *zap.Logger
	cancelFn context.CancelFunc
	doneCh   chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// RedisChangeNotifierOption configures the notifier
type RedisChangeNotifierOption func(*RedisChangeNotifier)

// WithChangeChannel sets the Pub/Sub channel name
func WithChangeChannel(channel string) RedisChangeNotifierOption {
	return func(n *RedisChangeNotifier) {
		n.channel = channel
	}
}

// WithChangeLogger sets the logger
func WithChangeLogger(logger *zap.Logger) RedisChangeNotifierOption {
	return func(n *RedisChangeNotifier) {
		n.logger = logger
	}
}

// NewRedisChangeNotifier creates a notifier using an existing client.
// The caller retains ownership of the client.
func NewRedisChangeNotifier(client *redis.Client, opts ...RedisChangeNotifierOption) *RedisChangeNotifier {
	n := &RedisChangeNotifier{
		client:  client,
		channel: DefaultChangeChannel,
		hub:     NewChangeHub(),
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify publishes a change. Local listeners receive it when it comes back from Redis.
func (n *RedisChangeNotifier) Notify(ctx context.Context, change Change) error {
	if change.At.IsZero() {
		change.At = time.Now()
	}
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		n.logger.Error("Failed to publish document change",
			zap.String("channel", n.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Listen implements Notifier
func (n *RedisChangeNotifier) Listen(collection string, fn func(Change)) func() {
	return n.hub.Listen(collection, fn)
}

// Run subscribes to the change channel and dispatches until ctx is cancelled or Close is called.
// It blocks and should be started in a goroutine.
func (n *RedisChangeNotifier) Run(ctx context.Context) error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return fmt.Errorf("change subscription already running")
	}
	n.running = true
	subCtx, cancel := context.WithCancel(ctx)
	n.cancelFn = cancel
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
		n.doneOnce.Do(func() { close(n.doneCh) })
	}()

	pubsub := n.client.Subscribe(subCtx, n.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	n.logger.Info("Subscribed to document change channel", zap.String("channel", n.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				n.logger.Warn("Document change channel closed")
				return nil
			}
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				n.logger.Error("Failed to unmarshal document change",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			n.hub.Dispatch(change)
		}
	}
}

// Close stops Run and waits for it to return
func (n *RedisChangeNotifier) Close() error {
	n.mu.Lock()
	cancel := n.cancelFn
	n.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-n.doneCh:
	case <-time.After(notifierCloseTimeout):
		n.logger.Warn("Timeout waiting for change subscription to stop")
	}
	return nil
}

var _ Notifier = (*RedisChangeNotifier)(nil)
var _ Notifier = (*ChangeHub)(nil)
