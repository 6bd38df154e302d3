package application

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/frontdesk/internal/engine"
)

// Snapshot is an immutable view of the room catalog and reservations that
// conflict checks run against. Version changes whenever the content does.
type Snapshot struct {
	Rooms        []engine.Room
	Reservations []engine.Reservation
	Version      string
	LoadedAt     time.Time

	index *engine.ReservationIndex
}

func newSnapshot(rooms []engine.Room, reservations []engine.Reservation, loadedAt time.Time) Snapshot {
	rooms = append([]engine.Room(nil), rooms...)
	reservations = append([]engine.Reservation(nil), reservations...)
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Floor != rooms[j].Floor {
			return rooms[i].Floor < rooms[j].Floor
		}
		return rooms[i].ID < rooms[j].ID
	})
	sort.SliceStable(reservations, func(i, j int) bool { return reservations[i].ID < reservations[j].ID })

	return Snapshot{
		Rooms:        rooms,
		Reservations: reservations,
		Version:      snapshotVersion(rooms, reservations),
		LoadedAt:     loadedAt,
		index:        engine.NewReservationIndex(reservations),
	}
}

// Room looks a room up by id.
func (s Snapshot) Room(id string) (engine.Room, bool) {
	return engine.FindRoom(s.Rooms, id)
}

// Reservation looks a reservation up by id.
func (s Snapshot) Reservation(id string) (engine.Reservation, bool) {
	i := sort.Search(len(s.Reservations), func(i int) bool { return s.Reservations[i].ID >= id })
	if i < len(s.Reservations) && s.Reservations[i].ID == id {
		return s.Reservations[i], true
	}
	return engine.Reservation{}, false
}

func (s Snapshot) reservationIndex() *engine.ReservationIndex {
	if s.index == nil {
		return engine.NewReservationIndex(s.Reservations)
	}
	return s.index
}

// snapshotVersion hashes a canonical rendering of the inputs. It backs the
// timeline ETag so an unchanged grid is never re-sent.
func snapshotVersion(rooms []engine.Room, reservations []engine.Reservation) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	var b strings.Builder
	for _, room := range rooms {
		b.Reset()
		fmt.Fprintf(&b, "room|%s|%d|%s|%d|%t", room.ID, room.Floor, room.Type, room.MaxOccupancy, room.Premium)
		tags := make([]string, 0, len(room.Rates))
		for tag := range room.Rates {
			tags = append(tags, string(tag))
		}
		sort.Strings(tags)
		for _, tag := range tags {
			b.WriteString("|" + tag + "=" + strconv.FormatFloat(room.Rates[engine.PeriodTag(tag)], 'f', -1, 64))
		}
		b.WriteByte('\n')
		h.Write([]byte(b.String()))
	}
	for _, r := range reservations {
		b.Reset()
		fmt.Fprintf(&b, "res|%s|%s|%s|%s|%s|%s|%d|%v|%s\n",
			r.ID, r.RoomID, r.Guest, r.CheckIn.Format(engine.DateLayout), r.CheckOut.Format(engine.DateLayout),
			r.Status, r.Adults, r.ChildAges, r.UpdatedAt.UTC().Format(time.RFC3339Nano))
		h.Write([]byte(b.String()))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
