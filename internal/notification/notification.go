// Package notification fans account events (welcome, bottle credited,
// redemption) out to downstream systems.
package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	// KindWelcome is sent once when a new account is registered.
	KindWelcome = "welcome"
	// KindBottleRecorded follows every confirmed bottle scan.
	KindBottleRecorded = "bottle_recorded"
	// KindRedemption follows every confirmed coin deduction.
	KindRedemption = "redemption"
)

// DefaultStream is the Redis stream RedisNotifier appends to.
const DefaultStream = "winbin:notifications"

const streamMaxLen = 10000

// Message describes a notification payload. Destination is the user's mobile.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("kind", message.Kind),
		slog.String("mobile", message.Destination),
		slog.String("body", message.Body),
	)
	return nil
}

// RedisNotifier appends notifications to a capped Redis stream for an SMS or
// push worker to consume.
type RedisNotifier struct {
	client *redis.Client
	stream string
}

// NewRedisNotifier builds a stream notifier. An empty stream uses DefaultStream.
func NewRedisNotifier(client *redis.Client, stream string) *RedisNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisNotifier{client: client, stream: stream}
}

// Send appends the message to the stream.
func (n *RedisNotifier) Send(ctx context.Context, message Message) error {
	return n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: streamMaxLen,
		Values: map[string]any{
			"kind":   message.Kind,
			"mobile": message.Destination,
			"body":   message.Body,
		},
	}).Err()
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

// Send delivers message to each notifier in order.
func (m Multi) Send(ctx context.Context, message Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
