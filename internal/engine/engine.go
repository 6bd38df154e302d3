// Package engine decides whether a room can be booked for a date range and
// prices stays night by night under a four-period seasonal tariff.
//
// Everything in the package is a pure computation over values supplied by
// the caller. An Engine is immutable after construction and safe for
// concurrent use; it never performs I/O and holds no reservation state, so
// keeping the stored reservations free of overlaps at write time is the job
// of the persistence layer.
package engine

import "fmt"

// Engine bundles the period resolver, conflict detector, nightly calculator
// and stay aggregator configured for one tariff.
type Engine struct {
	*Resolver
	*Detector
	*Calculator
	*Aggregator

	tariff Tariff
}

// New validates the tariff and pricing rules and builds an engine over them.
func New(tariff Tariff, rules PricingRules) (*Engine, error) {
	if err := tariff.Validate(); err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	resolver := NewResolver(tariff)
	calculator := NewCalculator(rules)
	return &Engine{
		Resolver:   resolver,
		Detector:   NewDetector(),
		Calculator: calculator,
		Aggregator: NewAggregator(resolver, calculator),
		tariff:     tariff,
	}, nil
}

// Tariff returns the tariff the engine was built with.
func (e *Engine) Tariff() Tariff { return e.tariff }
