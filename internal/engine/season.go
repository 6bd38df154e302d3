package engine

import (
	"fmt"
	"strings"
	"time"
)

// PeriodTag names one of the four seasonal tariff periods.
type PeriodTag string

const (
	PeriodA PeriodTag = "A"
	PeriodB PeriodTag = "B"
	PeriodC PeriodTag = "C"
	PeriodD PeriodTag = "D"
)

// DateSpan is an inclusive date window. A recurring span matches on month
// and day only and may wrap over the new year (for example 12-20 to 01-06).
type DateSpan struct {
	Start     time.Time
	End       time.Time
	Recurring bool
}

// FixedSpan returns a span bound to concrete dates.
func FixedSpan(start, end time.Time) DateSpan {
	return DateSpan{Start: Day(start), End: Day(end)}
}

// RecurringSpan returns a span that applies every year between the given
// month/day pairs.
func RecurringSpan(startMonth time.Month, startDay int, endMonth time.Month, endDay int) DateSpan {
	// 2024 is a leap year so 02-29 is representable.
	return DateSpan{
		Start:     time.Date(2024, startMonth, startDay, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, endMonth, endDay, 0, 0, 0, 0, time.UTC),
		Recurring: true,
	}
}

// Contains reports whether date falls within the span, bounds included.
func (s DateSpan) Contains(date time.Time) bool {
	date = Day(date)
	if !s.Recurring {
		return !date.Before(s.Start) && !date.After(s.End)
	}
	md, start, end := monthDay(date), monthDay(s.Start), monthDay(s.End)
	if start <= end {
		return md >= start && md <= end
	}
	return md >= start || md <= end
}

func (s DateSpan) String() string {
	if s.Recurring {
		return s.Start.Format("01-02") + ".." + s.End.Format("01-02")
	}
	return s.Start.Format(DateLayout) + ".." + s.End.Format(DateLayout)
}

func monthDay(t time.Time) int {
	return int(t.Month())*100 + t.Day()
}

// SeasonalPeriod is one tariff period with its date windows and the
// per-person, per-night tourism tax.
type SeasonalPeriod struct {
	Tag            PeriodTag
	Name           string
	Spans          []DateSpan
	TourismTaxRate float64
}

// Contains reports whether any span of the period covers date.
func (p SeasonalPeriod) Contains(date time.Time) bool {
	for _, span := range p.Spans {
		if span.Contains(date) {
			return true
		}
	}
	return false
}

// Tariff is the seasonal configuration of one tariff year. Year zero means
// the tariff is made of recurring spans and applies to any year.
type Tariff struct {
	Year    int
	Periods []SeasonalPeriod
}

// SpanOverlap records a date claimed by two spans.
type SpanOverlap struct {
	Date  time.Time
	First PeriodTag
	Other PeriodTag
}

// Overlaps lists every date covered by more than one span, within the same
// period or across periods. Only the first claimant and the first
// competing claimant are reported per date.
func (t Tariff) Overlaps() []SpanOverlap {
	type claim struct {
		tag  PeriodTag
		span int
	}
	owners := make(map[time.Time]claim)
	var overlaps []SpanOverlap
	seen := make(map[time.Time]bool)

	for _, period := range t.Periods {
		for i, span := range period.Spans {
			for _, d := range t.spanDays(span) {
				owner, taken := owners[d]
				if !taken {
					owners[d] = claim{tag: period.Tag, span: i}
					continue
				}
				if seen[d] {
					continue
				}
				seen[d] = true
				overlaps = append(overlaps, SpanOverlap{Date: d, First: owner.tag, Other: period.Tag})
			}
		}
	}
	return overlaps
}

// Gaps lists the dates of year that no period covers.
func (t Tariff) Gaps(year int) []time.Time {
	var gaps []time.Time
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() == year; d = d.AddDate(0, 0, 1) {
		covered := false
		for _, period := range t.Periods {
			if period.Contains(d) {
				covered = true
				break
			}
		}
		if !covered {
			gaps = append(gaps, d)
		}
	}
	return gaps
}

// Validate checks structural rules: unique non-empty tags, at least one
// span per period, non-inverted fixed spans, non-negative tax, and no
// overlapping spans. Overlaps are rejected rather than resolved so that a
// date never depends on the order periods were listed in.
func (t Tariff) Validate() error {
	if len(t.Periods) == 0 {
		return fmt.Errorf("%w: no periods configured", ErrInvalidTariff)
	}
	var problems []string
	tags := make(map[PeriodTag]bool, len(t.Periods))
	for _, period := range t.Periods {
		if period.Tag == "" {
			problems = append(problems, "period with empty tag")
		} else if tags[period.Tag] {
			problems = append(problems, fmt.Sprintf("duplicate period %s", period.Tag))
		}
		tags[period.Tag] = true
		if len(period.Spans) == 0 {
			problems = append(problems, fmt.Sprintf("period %s has no spans", period.Tag))
		}
		if period.TourismTaxRate < 0 {
			problems = append(problems, fmt.Sprintf("period %s has negative tourism tax", period.Tag))
		}
		for _, span := range period.Spans {
			if !span.Recurring && span.End.Before(span.Start) {
				problems = append(problems, fmt.Sprintf("period %s span %s is inverted", period.Tag, span))
			}
		}
	}
	for _, o := range t.Overlaps() {
		problems = append(problems, fmt.Sprintf("%s claimed by %s and %s", o.Date.Format(DateLayout), o.First, o.Other))
		if len(problems) >= 10 {
			break
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTariff, strings.Join(problems, "; "))
	}
	return nil
}

// spanDays expands a span into concrete dates. Recurring spans are expanded
// over the tariff year, or over a leap reference year when the tariff is not
// bound to one.
func (t Tariff) spanDays(span DateSpan) []time.Time {
	var days []time.Time
	if !span.Recurring {
		for d := span.Start; !d.After(span.End); d = d.AddDate(0, 0, 1) {
			days = append(days, d)
		}
		return days
	}
	year := t.Year
	if year == 0 {
		year = 2024
	}
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if span.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Resolver maps calendar dates to seasonal periods.
type Resolver struct {
	periods []SeasonalPeriod
}

// NewResolver builds a resolver over the tariff's periods in their
// configured order.
func NewResolver(tariff Tariff) *Resolver {
	periods := make([]SeasonalPeriod, len(tariff.Periods))
	copy(periods, tariff.Periods)
	return &Resolver{periods: periods}
}

// Resolve returns the tag of the first period whose spans contain date.
func (r *Resolver) Resolve(date time.Time) (PeriodTag, error) {
	period, err := r.ResolvePeriod(date)
	if err != nil {
		return "", err
	}
	return period.Tag, nil
}

// ResolvePeriod returns the full definition of the period covering date.
func (r *Resolver) ResolvePeriod(date time.Time) (SeasonalPeriod, error) {
	for _, period := range r.periods {
		if period.Contains(date) {
			return period, nil
		}
	}
	return SeasonalPeriod{}, fmt.Errorf("resolve %s: %w", Day(date).Format(DateLayout), ErrNoMatchingPeriod)
}
