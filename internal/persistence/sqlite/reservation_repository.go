package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/frontdesk/internal/engine"
	"github.com/example/frontdesk/internal/persistence"
)

const reservationColumns = `id, room_id, guest_kind, guest_ref, check_in, check_out, adults, child_ages, status,
	parking, parking_spots, pets, pet_count,
	total_accommodation, total_services, total_tourism_tax, total_vat, grand_total, updated_at`

// ReservationRepository implements persistence.ReservationRepository using
// SQLite. Writes run inside BEGIN IMMEDIATE transactions and re-check the
// room for overlaps with engine.Detector before committing.
type ReservationRepository struct {
	pool     *ConnectionPool
	retry    *RetryHelper
	detector *engine.Detector
	now      func() time.Time
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:     pool,
		retry:    NewRetryHelper(DefaultRetryConfig()),
		detector: engine.NewDetector(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateReservation stores a new reservation with optional daily details.
func (r *ReservationRepository) CreateReservation(ctx context.Context, res engine.Reservation, details []engine.DailyDetail) error {
	if err := validateReservation(res); err != nil {
		return err
	}
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := r.ensureNoOverlap(ctx, tx, res); err != nil {
				return err
			}
			childAges, err := encodeAges(res.ChildAges)
			if err != nil {
				return err
			}
			now := r.now().Format(time.RFC3339Nano)
			updated := now
			if !res.UpdatedAt.IsZero() {
				updated = res.UpdatedAt.UTC().Format(time.RFC3339Nano)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO reservations (`+reservationColumns+`, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				res.ID, res.RoomID, res.Guest.Kind().String(), res.Guest.Ref(),
				formatDate(res.CheckIn), formatDate(res.CheckOut), res.Adults, childAges, string(res.Status),
				res.Services.Parking, res.Services.ParkingSpots, res.Services.Pets, res.Services.PetCount,
				res.Totals.Accommodation, res.Totals.Services, res.Totals.TourismTax, res.Totals.VAT, res.Totals.Grand,
				updated, now)
			if err != nil {
				return mapError(err)
			}
			return insertDetails(ctx, tx, res.ID, details)
		})
	})
}

// UpdateReservation replaces a reservation's stored state. A nil details
// slice keeps the stored daily details.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, res engine.Reservation, details []engine.DailyDetail) error {
	if err := validateReservation(res); err != nil {
		return err
	}
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := r.ensureNoOverlap(ctx, tx, res); err != nil {
				return err
			}
			childAges, err := encodeAges(res.ChildAges)
			if err != nil {
				return err
			}
			updated := res.UpdatedAt
			if updated.IsZero() {
				updated = r.now()
			}
			result, err := tx.ExecContext(ctx, `
				UPDATE reservations SET
					room_id = ?, guest_kind = ?, guest_ref = ?, check_in = ?, check_out = ?,
					adults = ?, child_ages = ?, status = ?,
					parking = ?, parking_spots = ?, pets = ?, pet_count = ?,
					total_accommodation = ?, total_services = ?, total_tourism_tax = ?, total_vat = ?, grand_total = ?,
					updated_at = ?
				WHERE id = ?`,
				res.RoomID, res.Guest.Kind().String(), res.Guest.Ref(), formatDate(res.CheckIn), formatDate(res.CheckOut),
				res.Adults, childAges, string(res.Status),
				res.Services.Parking, res.Services.ParkingSpots, res.Services.Pets, res.Services.PetCount,
				res.Totals.Accommodation, res.Totals.Services, res.Totals.TourismTax, res.Totals.VAT, res.Totals.Grand,
				updated.UTC().Format(time.RFC3339Nano), res.ID)
			if err != nil {
				return mapError(err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("sqlite: rows affected: %w", err)
			}
			if affected == 0 {
				return persistence.ErrNotFound
			}
			if details == nil {
				return nil
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM daily_details WHERE reservation_id = ?`, res.ID); err != nil {
				return mapError(err)
			}
			return insertDetails(ctx, tx, res.ID, details)
		})
	})
}

// GetReservation retrieves a reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (engine.Reservation, error) {
	if id == "" {
		return engine.Reservation{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if err != nil {
		return engine.Reservation{}, err
	}
	return res, nil
}

// ListReservations returns reservations matching filter ordered by room and
// check-in.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]engine.Reservation, error) {
	return queryReservations(ctx, r.pool.DB(), filter)
}

// ListDailyDetails returns a reservation's daily details ordered by date.
func (r *ReservationRepository) ListDailyDetails(ctx context.Context, reservationID string) ([]engine.DailyDetail, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT stay_date, adults, child_ages, parking_spots, pets, towels, note
		FROM daily_details
		WHERE reservation_id = ?
		ORDER BY stay_date`, reservationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var details []engine.DailyDetail
	for rows.Next() {
		var d engine.DailyDetail
		var stayDate, childAges string
		if err := rows.Scan(&stayDate, &d.Adults, &childAges, &d.ParkingSpots, &d.Pets, &d.Towels, &d.Note); err != nil {
			return nil, mapError(err)
		}
		if d.Date, err = engine.ParseDate(stayDate); err != nil {
			return nil, fmt.Errorf("sqlite: parse stay_date: %w", err)
		}
		if d.ChildAges, err = decodeAges(childAges); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ensureNoOverlap loads the room's stays around the new range and lets the
// engine decide. It runs inside the write transaction, so no other writer
// can slip a reservation in between the check and the insert.
func (r *ReservationRepository) ensureNoOverlap(ctx context.Context, tx *sql.Tx, res engine.Reservation) error {
	if !res.Status.Blocking() {
		return nil
	}
	existing, err := queryReservations(ctx, tx, persistence.ReservationFilter{
		RoomID:       res.RoomID,
		From:         res.CheckIn,
		To:           res.CheckOut,
		BlockingOnly: true,
	})
	if err != nil {
		return err
	}
	overlaps, err := r.detector.FindOverlaps(res.RoomID, res.CheckIn, res.CheckOut, existing, res.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	if len(overlaps) > 0 {
		ids := make([]string, 0, len(overlaps))
		for _, o := range overlaps {
			ids = append(ids, o.ID)
		}
		return fmt.Errorf("%w: room %s overlaps %s", persistence.ErrConflictOnCommit, res.RoomID, strings.Join(ids, ", "))
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryReservations(ctx context.Context, q queryer, filter persistence.ReservationFilter) ([]engine.Reservation, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	// Same half-open predicate the engine uses; dates compare as ISO text.
	if !filter.To.IsZero() {
		clauses = append(clauses, "check_in < ?")
		args = append(args, formatDate(filter.To))
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "check_out > ?")
		args = append(args, formatDate(filter.From))
	}
	if filter.BlockingOnly {
		clauses = append(clauses, "status NOT IN (?, ?)")
		args = append(args, string(engine.StatusCancelled), string(engine.StatusNoShow))
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY room_id, check_in, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []engine.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(row scanner) (engine.Reservation, error) {
	var res engine.Reservation
	var guestKind, guestRef, checkIn, checkOut, updated, childAges, status string
	err := row.Scan(
		&res.ID, &res.RoomID, &guestKind, &guestRef, &checkIn, &checkOut, &res.Adults, &childAges, &status,
		&res.Services.Parking, &res.Services.ParkingSpots, &res.Services.Pets, &res.Services.PetCount,
		&res.Totals.Accommodation, &res.Totals.Services, &res.Totals.TourismTax, &res.Totals.VAT, &res.Totals.Grand,
		&updated,
	)
	if err != nil {
		return engine.Reservation{}, mapError(err)
	}
	switch guestKind {
	case engine.GuestPlaceholder.String():
		res.Guest = engine.PlaceholderGuest(guestRef)
	default:
		res.Guest = engine.RegisteredGuest(guestRef)
	}
	if res.CheckIn, err = engine.ParseDate(checkIn); err != nil {
		return engine.Reservation{}, fmt.Errorf("sqlite: parse check_in: %w", err)
	}
	if res.CheckOut, err = engine.ParseDate(checkOut); err != nil {
		return engine.Reservation{}, fmt.Errorf("sqlite: parse check_out: %w", err)
	}
	if res.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return engine.Reservation{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	if res.ChildAges, err = decodeAges(childAges); err != nil {
		return engine.Reservation{}, err
	}
	res.Status = engine.Status(status)
	return res, nil
}

func insertDetails(ctx context.Context, tx *sql.Tx, reservationID string, details []engine.DailyDetail) error {
	for _, d := range details {
		childAges, err := encodeAges(d.ChildAges)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_details (reservation_id, stay_date, adults, child_ages, parking_spots, pets, towels, note)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			reservationID, formatDate(d.Date), d.Adults, childAges, d.ParkingSpots, d.Pets, d.Towels, d.Note)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func validateReservation(res engine.Reservation) error {
	if res.ID == "" || res.RoomID == "" || res.Guest.IsZero() || !res.Status.Valid() {
		return persistence.ErrConstraintViolation
	}
	if !engine.Day(res.CheckOut).After(engine.Day(res.CheckIn)) {
		return fmt.Errorf("%w: check-out must follow check-in", persistence.ErrConstraintViolation)
	}
	return nil
}

func formatDate(t time.Time) string {
	return engine.Day(t).Format(engine.DateLayout)
}

func encodeAges(ages []int) (string, error) {
	if len(ages) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(ages)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode child ages: %w", err)
	}
	return string(b), nil
}

func decodeAges(value string) ([]int, error) {
	var ages []int
	if value == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(value), &ages); err != nil {
		return nil, fmt.Errorf("sqlite: decode child ages: %w", err)
	}
	if len(ages) == 0 {
		return nil, nil
	}
	return ages, nil
}
