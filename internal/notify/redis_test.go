package notify

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestChangeCodec(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, time.July, 12, 8, 0, 0, 0, time.UTC)
	payload, err := encodeChange(Change{Kind: KindReservationMoved, ReservationID: "res-9", RoomIDs: []string{"R1", "R2"}, At: at, Origin: "desk-a"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(payload), `"kind":"reservation_moved"`) {
		t.Fatalf("unexpected payload %s", payload)
	}
	got, err := decodeChange(string(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ReservationID != "res-9" || len(got.RoomIDs) != 2 || !got.At.Equal(at) || got.Origin != "desk-a" {
		t.Fatalf("unexpected change %+v", got)
	}

	if _, err := decodeChange("not json"); err == nil {
		t.Fatalf("expected malformed payload to fail")
	}
	if _, err := decodeChange(`{"reservation_id":"x"}`); err == nil {
		t.Fatalf("expected change without kind to fail")
	}
}

func TestNewRedisClientRequiresAddress(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisClient(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected empty address to be rejected")
	}
}

func TestNewRedisChannelDefaults(t *testing.T) {
	t.Parallel()

	ch := NewRedisChannel(nil, "", nil)
	if ch.channel != "frontdesk:changes" || ch.logger == nil {
		t.Fatalf("unexpected defaults %+v", ch)
	}
}
