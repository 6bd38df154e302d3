package engine

import "time"

// NormalizeDrag turns a pair of timeline day offsets, in either order, into
// a stay. The later offset is the last occupied night, so check-out is the
// day after it and a single-day selection is a one-night stay.
func NormalizeDrag(startOffset, endOffset int, origin time.Time) (checkIn, checkOut time.Time) {
	lo, hi := startOffset, endOffset
	if hi < lo {
		lo, hi = hi, lo
	}
	base := Day(origin)
	return base.AddDate(0, 0, lo), base.AddDate(0, 0, hi+1)
}

// ValidateCreate checks whether a dragged selection on the timeline can
// become a new reservation for roomID. It never mutates anything.
func (d *Detector) ValidateCreate(roomID string, startOffset, endOffset int, origin time.Time, reservations []Reservation) (RangeValidation, error) {
	checkIn, checkOut := NormalizeDrag(startOffset, endOffset, origin)
	conflicts, err := d.FindOverlaps(roomID, checkIn, checkOut, reservations, "")
	if err != nil {
		return RangeValidation{}, err
	}
	return RangeValidation{
		RoomID:    roomID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		IsValid:   len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}
