package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/engine/graph"
	"github.com/beedev/recommenderv3-sub002/pkg/resilience"
)

// GraphQuerier abstracts the compatibility traversal of the catalog graph.
type GraphQuerier interface {
	TraverseCompatible(ctx context.Context, anchorIDs []string, target catalog.Category) ([]graph.Compatible, error)
}

// GraphStrategy traverses COMPATIBLE_WITH edges outward from the already
// selected components. Candidates are scored by minimum edge priority,
// lower = better.
type GraphStrategy struct {
	store   GraphQuerier
	breaker *resilience.Breaker
	logger  *slog.Logger
}

// NewGraphStrategy creates the compatibility-graph strategy.
func NewGraphStrategy(store GraphQuerier, logger *slog.Logger) *GraphStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphStrategy{
		store:   store,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:  logger,
	}
}

func (s *GraphStrategy) Name() string { return StrategyGraph }

// Applicable requires at least one anchor; an empty selection is not an
// exclusion filter, there is simply nothing to traverse from.
func (s *GraphStrategy) Applicable(req catalog.SearchRequest) (bool, string) {
	if len(req.Selected) == 0 {
		return false, "no anchor"
	}
	return true, ""
}

func (s *GraphStrategy) Execute(ctx context.Context, req catalog.SearchRequest) ([]Candidate, Outcome) {
	anchors := req.AnchorIDs()

	var reachable []graph.Compatible
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		reachable, callErr = s.store.TraverseCompatible(ctx, anchors, req.ComponentType)
		return callErr
	})
	if err != nil {
		s.logger.Warn("graph strategy failed", "anchors", len(anchors), "err", err)
		return nil, failureOutcome(err)
	}

	// Local comparator: minimum priority first, id as deterministic tiebreak.
	sort.SliceStable(reachable, func(i, j int) bool {
		if reachable[i].Priority != reachable[j].Priority {
			return reachable[i].Priority < reachable[j].Priority
		}
		return reachable[i].Product.ID < reachable[j].Product.ID
	})

	candidates := make([]Candidate, 0, len(reachable))
	for _, c := range reachable {
		if c.Product.Category != req.ComponentType {
			// The store filters by category; a stray node here is a data bug.
			continue
		}
		candidates = append(candidates, Candidate{
			Product:     c.Product,
			Score:       float64(c.Priority),
			Strategy:    StrategyGraph,
			Explanation: fmt.Sprintf("compatible with selected components (edge priority %d)", c.Priority),
		})
	}
	return candidates, Success()
}
