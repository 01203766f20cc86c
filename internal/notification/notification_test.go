package notification

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, Message) error { return errors.New("down") }

func TestRedisNotifierAppendsToStream(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	n := NewRedisNotifier(client, "")
	if err := n.Send(ctx, Message{Kind: KindWelcome, Destination: "9876543210", Body: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	entries, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Values["kind"] != KindWelcome || entries[0].Values["mobile"] != "9876543210" {
		t.Fatalf("unexpected entry %v", entries[0].Values)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	m := Multi{NewLoggerNotifier(nil), failingNotifier{}}
	if err := m.Send(context.Background(), Message{Kind: KindRedemption}); err == nil {
		t.Fatalf("expected downstream failure to surface")
	}
	if err := (Multi{NewLoggerNotifier(nil)}).Send(context.Background(), Message{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
