package application

import (
	"testing"
	"time"

	"github.com/example/frontdesk/internal/engine"
)

func TestSnapshotVersion(t *testing.T) {
	t.Parallel()

	rooms := []engine.Room{testRoom("102", 1), testRoom("101", 1)}
	res := []engine.Reservation{
		testBooking("b", "101", "2024-07-10", "2024-07-13", engine.StatusConfirmed),
		testBooking("a", "102", "2024-07-12", "2024-07-15", engine.StatusConfirmed),
	}
	loaded := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	first := newSnapshot(rooms, res, loaded)
	reordered := newSnapshot([]engine.Room{rooms[1], rooms[0]}, []engine.Reservation{res[1], res[0]}, loaded.Add(time.Hour))
	if first.Version != reordered.Version {
		t.Fatalf("expected version to ignore input order, got %s and %s", first.Version, reordered.Version)
	}
	if len(first.Version) != 32 {
		t.Fatalf("expected 128-bit hex version, got %q", first.Version)
	}

	changed := append([]engine.Reservation(nil), res...)
	changed[0].Status = engine.StatusCancelled
	if newSnapshot(rooms, changed, loaded).Version == first.Version {
		t.Fatalf("expected a status change to alter the version")
	}

	if first.Rooms[0].ID != "101" {
		t.Fatalf("expected rooms sorted by floor and id, got %s", first.Rooms[0].ID)
	}
	if got, ok := first.Reservation("b"); !ok || got.RoomID != "101" {
		t.Fatalf("expected reservation lookup to succeed, got %+v %v", got, ok)
	}
	if _, ok := first.Reservation("zz"); ok {
		t.Fatalf("expected unknown reservation to be missing")
	}
	if _, ok := first.Room("999"); ok {
		t.Fatalf("expected unknown room to be missing")
	}
}
