package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/pkg/resilience"
)

// CategoryLister abstracts the unfiltered category listing of the catalog.
type CategoryLister interface {
	ListByCategory(ctx context.Context, category catalog.Category, limit int) ([]catalog.Product, error)
}

// fallbackSafetyLimit caps the unfiltered listing.
const fallbackSafetyLimit = 50

// FallbackStrategy lists the requested category when no compatibility or
// keyword signal exists (first turn, empty catalog context). Its candidates
// are explicitly low-confidence so consolidation ranks them below any strategy
// that found real signal.
type FallbackStrategy struct {
	store       CategoryLister
	breaker     *resilience.Breaker
	logger      *slog.Logger
	safetyLimit int
}

// NewFallbackStrategy creates the explicit-selection fallback strategy.
func NewFallbackStrategy(store CategoryLister, logger *slog.Logger) *FallbackStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStrategy{
		store:       store,
		breaker:     resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:      logger,
		safetyLimit: fallbackSafetyLimit,
	}
}

func (s *FallbackStrategy) Name() string { return StrategyFallback }

// Applicable is true only when neither traversal nor keyword matching is
// possible; otherwise the stronger strategies own the request.
func (s *FallbackStrategy) Applicable(req catalog.SearchRequest) (bool, string) {
	if len(req.Selected) > 0 || len(req.Tokens) > 0 || strings.TrimSpace(req.FreeText) != "" {
		return false, "stronger signal available"
	}
	return true, ""
}

func (s *FallbackStrategy) Execute(ctx context.Context, req catalog.SearchRequest) ([]Candidate, Outcome) {
	var products []catalog.Product
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		products, callErr = s.store.ListByCategory(ctx, req.ComponentType, s.safetyLimit)
		return callErr
	})
	if err != nil {
		s.logger.Warn("fallback strategy failed", "category", req.ComponentType, "err", err)
		return nil, failureOutcome(err)
	}

	// Local comparator: display name, id as deterministic tiebreak.
	sort.SliceStable(products, func(i, j int) bool {
		ni, nj := strings.ToLower(products[i].Name), strings.ToLower(products[j].Name)
		if ni != nj {
			return ni < nj
		}
		return products[i].ID < products[j].ID
	})

	candidates := make([]Candidate, 0, len(products))
	for i, p := range products {
		candidates = append(candidates, Candidate{
			Product:       p,
			Score:         float64(i),
			Strategy:      StrategyFallback,
			Explanation:   "unfiltered category listing",
			LowConfidence: true,
		})
	}
	return candidates, Success()
}
