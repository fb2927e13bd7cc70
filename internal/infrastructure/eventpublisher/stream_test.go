package eventpublisher

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iho/stockledger/internal/domain"
)

func TestStreamPublisherAppendsEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	pub := NewStreamPublisher(client, "", 0)
	ctx := context.Background()

	err := pub.Publish(ctx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "item-1",
		AggregateType: domain.AggregateTypeItem,
		EventType:     domain.EventTypeBelowMinimum,
		Payload:       map[string]any{"balance": 2},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	entries, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one stream entry, got %d", len(entries))
	}

	values := entries[0].Values
	if values["event_type"] != domain.EventTypeBelowMinimum || values["aggregate_id"] != "item-1" {
		t.Fatalf("unexpected stream values %#v", values)
	}
	if values["payload"] != `{"balance":2}` {
		t.Fatalf("unexpected payload %v", values["payload"])
	}
}
