package engine

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResolverBoundaries(t *testing.T) {
	t.Parallel()

	r := NewResolver(seasonTariff())
	cases := map[string]PeriodTag{
		"2025-01-01": PeriodA,
		"2025-03-31": PeriodA,
		"2025-04-01": PeriodB,
		"2025-05-25": PeriodB,
		"2025-05-26": PeriodC,
		"2025-06-30": PeriodC,
		"2025-07-01": PeriodD,
		"2025-08-31": PeriodD,
		"2025-09-01": PeriodC,
		"2025-09-30": PeriodC,
		"2025-10-01": PeriodB,
		"2025-10-31": PeriodB,
		"2025-11-01": PeriodA,
		"2025-12-31": PeriodA,
		"2024-02-29": PeriodA,
	}
	for value, want := range cases {
		value, want := value, want
		t.Run(value, func(t *testing.T) {
			t.Parallel()
			got, err := r.Resolve(date(t, value))
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		})
	}
}

func TestResolverIsTotalOverTheYear(t *testing.T) {
	t.Parallel()

	tariff := seasonTariff()
	if gaps := tariff.Gaps(2025); len(gaps) != 0 {
		t.Fatalf("expected no gaps, got %d starting %s", len(gaps), gaps[0].Format(DateLayout))
	}
	if overlaps := tariff.Overlaps(); len(overlaps) != 0 {
		t.Fatalf("expected no overlaps, got %+v", overlaps)
	}
	r := NewResolver(tariff)
	for d := date(t, "2025-01-01"); d.Year() == 2025; d = d.AddDate(0, 0, 1) {
		matches := 0
		for _, p := range tariff.Periods {
			if p.Contains(d) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("%s matched %d periods", d.Format(DateLayout), matches)
		}
		if _, err := r.Resolve(d); err != nil {
			t.Fatalf("resolve %s: %v", d.Format(DateLayout), err)
		}
	}
}

func TestResolverNoMatchingPeriod(t *testing.T) {
	t.Parallel()

	r := NewResolver(Tariff{Periods: []SeasonalPeriod{{
		Tag:   PeriodD,
		Spans: []DateSpan{FixedSpan(date(t, "2025-07-01"), date(t, "2025-08-31"))},
	}}})
	_, err := r.Resolve(date(t, "2025-09-01"))
	if !errors.Is(err, ErrNoMatchingPeriod) {
		t.Fatalf("expected ErrNoMatchingPeriod, got %v", err)
	}
	if !strings.Contains(err.Error(), "2025-09-01") {
		t.Fatalf("expected date in error, got %v", err)
	}
	// Fixed spans do not repeat in other years.
	if _, err := r.Resolve(date(t, "2026-07-15")); !errors.Is(err, ErrNoMatchingPeriod) {
		t.Fatalf("expected fixed span to stay in 2025, got %v", err)
	}
}

func TestRecurringSpanWrapsYearEnd(t *testing.T) {
	t.Parallel()

	span := RecurringSpan(time.December, 20, time.January, 6)
	for _, value := range []string{"2025-12-20", "2025-12-31", "2026-01-01", "2026-01-06"} {
		if !span.Contains(date(t, value)) {
			t.Fatalf("expected %s inside %s", value, span)
		}
	}
	for _, value := range []string{"2025-12-19", "2026-01-07", "2026-07-01"} {
		if span.Contains(date(t, value)) {
			t.Fatalf("expected %s outside %s", value, span)
		}
	}
}

func TestTariffValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid schedule", func(t *testing.T) {
		t.Parallel()
		if err := seasonTariff().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("overlapping B and C windows are rejected", func(t *testing.T) {
		t.Parallel()
		tariff := seasonTariff()
		tariff.Periods[1].Spans[0] = RecurringSpan(time.April, 1, time.May, 28)
		overlaps := tariff.Overlaps()
		if len(overlaps) != 3 {
			t.Fatalf("expected May 26-28 to be reported, got %+v", overlaps)
		}
		for _, o := range overlaps {
			if o.First != PeriodB || o.Other != PeriodC {
				t.Fatalf("expected B/C overlap, got %+v", o)
			}
		}
		err := tariff.Validate()
		if !errors.Is(err, ErrInvalidTariff) {
			t.Fatalf("expected ErrInvalidTariff, got %v", err)
		}
		if !strings.Contains(err.Error(), "05-26") {
			t.Fatalf("expected first overlapping date in error, got %v", err)
		}
		if _, err := New(tariff, testRules()); !errors.Is(err, ErrInvalidTariff) {
			t.Fatalf("expected engine construction to fail, got %v", err)
		}
	})

	t.Run("structural problems", func(t *testing.T) {
		t.Parallel()
		tariff := Tariff{Periods: []SeasonalPeriod{
			{Tag: PeriodA, TourismTaxRate: -1, Spans: []DateSpan{FixedSpan(date(t, "2025-02-01"), date(t, "2025-01-01"))}},
			{Tag: PeriodA},
		}}
		err := tariff.Validate()
		if !errors.Is(err, ErrInvalidTariff) {
			t.Fatalf("expected ErrInvalidTariff, got %v", err)
		}
		for _, fragment := range []string{"negative tourism tax", "inverted", "duplicate period A", "no spans"} {
			if !strings.Contains(err.Error(), fragment) {
				t.Fatalf("expected %q in %v", fragment, err)
			}
		}
	})

	t.Run("empty tariff", func(t *testing.T) {
		t.Parallel()
		if err := (Tariff{}).Validate(); !errors.Is(err, ErrInvalidTariff) {
			t.Fatalf("expected ErrInvalidTariff, got %v", err)
		}
	})
}

func TestTariffGaps(t *testing.T) {
	t.Parallel()

	tariff := seasonTariff()
	tariff.Periods = tariff.Periods[:3]
	gaps := tariff.Gaps(2025)
	if len(gaps) != 62 {
		t.Fatalf("expected July and August uncovered, got %d gaps", len(gaps))
	}
	if !gaps[0].Equal(date(t, "2025-07-01")) || !gaps[len(gaps)-1].Equal(date(t, "2025-08-31")) {
		t.Fatalf("unexpected gap bounds %s..%s", gaps[0].Format(DateLayout), gaps[len(gaps)-1].Format(DateLayout))
	}
}
