package engine

import "time"

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its own calendar date. Every date that
// enters the engine passes through Day so that comparisons are made on whole
// days regardless of the caller's time zone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// NightsBetween returns the number of nights in [checkIn, checkOut).
func NightsBetween(checkIn, checkOut time.Time) int {
	in, out := Day(checkIn), Day(checkOut)
	if !out.After(in) {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}

// eachNight calls fn for every date in [checkIn, checkOut).
func eachNight(checkIn, checkOut time.Time, fn func(time.Time) error) error {
	for d := Day(checkIn); d.Before(Day(checkOut)); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func validRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() || !Day(checkOut).After(Day(checkIn)) {
		return &DateRangeError{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	}
	return nil
}
