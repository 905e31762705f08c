// Package search implements the multi-strategy compatibility-aware search
// engine: independent strategies query the product graph and the text-relevance
// index, a consolidator merges and deduplicates their candidates, and a pure
// ranker fixes the final order.
package search

import (
	"context"
	"errors"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/pkg/resilience"
)

// Strategy identifiers, in precedence order (highest first).
const (
	StrategyGraph    = "compatibility-graph"
	StrategyKeyword  = "weighted-keyword"
	StrategyFallback = "category-fallback"
)

// precedence fixes the cross-strategy merge order. Lower is stronger.
var precedence = map[string]int{
	StrategyGraph:    0,
	StrategyKeyword:  1,
	StrategyFallback: 2,
}

// Status is the closed set of strategy outcomes.
type Status int

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome reports how a strategy execution ended.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Success() Outcome              { return Outcome{Status: StatusSuccess} }
func Partial(reason string) Outcome { return Outcome{Status: StatusPartial, Reason: reason} }
func Failed(reason string) Outcome  { return Outcome{Status: StatusFailed, Reason: reason} }
func Skipped(reason string) Outcome { return Outcome{Status: StatusSkipped, Reason: reason} }

// Contributed reports whether the outcome allows the strategy's candidates
// into consolidation.
func (o Outcome) Contributed() bool {
	return o.Status == StatusSuccess || o.Status == StatusPartial
}

// Candidate is one strategy-local result. Scores are on strategy-specific
// scales and must never be compared across strategies.
type Candidate struct {
	Product       catalog.Product `json:"product"`
	Score         float64         `json:"score"`
	Strategy      string          `json:"strategy"`
	Explanation   string          `json:"explanation,omitempty"`
	LowConfidence bool            `json:"low_confidence,omitempty"`
}

// Strategy is one independent candidate source. Execute must honour the
// context deadline and report failures through the Outcome rather than
// panicking or blocking past the deadline.
type Strategy interface {
	Name() string
	// Applicable decides, before any backend round trip, whether the strategy
	// can contribute to this request. The string is the skip reason.
	Applicable(req catalog.SearchRequest) (bool, string)
	Execute(ctx context.Context, req catalog.SearchRequest) ([]Candidate, Outcome)
}

// failureOutcome maps a backend error onto the outcome taxonomy.
func failureOutcome(err error) Outcome {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Failed("timeout")
	case errors.Is(err, resilience.ErrCircuitOpen):
		return Failed("backend circuit open")
	default:
		return Failed(err.Error())
	}
}
