package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/pkg/fn"
)

// Execution is one strategy run, in the form the consolidator consumes.
type Execution struct {
	Strategy   string
	Candidates []Candidate
	Outcome    Outcome
	Duration   time.Duration
}

// StrategyReport is the per-strategy metadata exposed to callers.
type StrategyReport struct {
	Strategy   string `json:"strategy"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Candidates int    `json:"candidates"`
	DurationMS int64  `json:"duration_ms"`
}

// Match is the surviving per-product record: the highest-precedence strategy's
// score and explanation, plus how many strategies confirmed the product.
type Match struct {
	ProductID     string  `json:"product_id"`
	Strategy      string  `json:"strategy"`
	Score         float64 `json:"score"`
	Explanation   string  `json:"explanation,omitempty"`
	Sources       int     `json:"sources"`
	LowConfidence bool    `json:"low_confidence,omitempty"`
}

// Result is the consolidated, ranked, paginated response for one request.
// Request-scoped and never persisted; safe to serialize as-is.
type Result struct {
	Products       []catalog.Product `json:"products"`
	Matches        []Match           `json:"matches"`
	TotalCount     int               `json:"total_count"`
	FiltersApplied []string          `json:"filters_applied"`
	StrategyCounts map[string]int    `json:"strategy_counts"`
	Reports        []StrategyReport  `json:"strategy_reports"`
	Explanation    string            `json:"explanation,omitempty"`
}

// survivor tracks one deduplicated candidate through consolidation.
type survivor struct {
	candidate Candidate
	sources   int
}

// Consolidate merges per-strategy candidate sets into one ordered, deduplicated,
// paginated result. Cross-strategy scores are never combined: strategies are
// concatenated in fixed precedence order, first occurrence wins, and the final
// presentation order is the pure ranker's. Pagination happens strictly after
// dedup and ranking.
func Consolidate(execs []Execution, req catalog.SearchRequest) Result {
	ordered := make([]Execution, len(execs))
	copy(ordered, execs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return precedence[ordered[i].Strategy] < precedence[ordered[j].Strategy]
	})

	seen := make(map[string]*survivor)
	var order []string
	for _, exec := range ordered {
		if !exec.Outcome.Contributed() {
			continue
		}
		for _, c := range exec.Candidates {
			id := c.Product.ID
			if s, ok := seen[id]; ok {
				s.sources++
				continue
			}
			seen[id] = &survivor{candidate: c, sources: 1}
			order = append(order, id)
		}
	}

	merged := fn.Map(order, func(id string) catalog.Product { return seen[id].candidate.Product })
	ranked := Rank(merged, RankContext{Query: req.FreeText})

	total := len(ranked)
	window := paginate(ranked, req.Offset, req.Limit)

	matches := fn.Map(window, func(p catalog.Product) Match {
		s := seen[p.ID]
		return Match{
			ProductID:     p.ID,
			Strategy:      s.candidate.Strategy,
			Score:         s.candidate.Score,
			Explanation:   s.candidate.Explanation,
			Sources:       s.sources,
			LowConfidence: s.candidate.LowConfidence,
		}
	})

	counts := make(map[string]int)
	for _, id := range order {
		counts[seen[id].candidate.Strategy]++
	}

	res := Result{
		Products:       window,
		Matches:        matches,
		TotalCount:     total,
		FiltersApplied: filtersApplied(req),
		StrategyCounts: counts,
		Reports:        reports(execs),
	}
	if len(window) == 0 {
		res.Explanation = zeroResultExplanation(ordered, req, total)
	}
	return res
}

// paginate applies the limit/offset window after dedup and ranking.
func paginate(products []catalog.Product, offset, limit int) []catalog.Product {
	if offset >= len(products) {
		return nil
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end]
}

// filtersApplied records which constraint classes actually shaped the search.
func filtersApplied(req catalog.SearchRequest) []string {
	applied := []string{"category:" + string(req.ComponentType)}
	if n := len(req.Selected); n > 0 {
		applied = append(applied, fmt.Sprintf("compatibility:%d anchors", n))
	}
	if n := len(req.Tokens); n > 0 {
		applied = append(applied, fmt.Sprintf("keywords:%d tokens", n))
	}
	if strings.TrimSpace(req.FreeText) != "" {
		applied = append(applied, "free_text")
	}
	return applied
}

func reports(execs []Execution) []StrategyReport {
	out := make([]StrategyReport, 0, len(execs))
	for _, e := range execs {
		out = append(out, StrategyReport{
			Strategy:   e.Strategy,
			Status:     e.Outcome.Status.String(),
			Reason:     e.Outcome.Reason,
			Candidates: len(e.Candidates),
			DurationMS: e.Duration.Milliseconds(),
		})
	}
	return out
}

// zeroResultExplanation names which constraints yielded nothing, so the
// conversation layer can phrase a useful "no matches because X" message.
func zeroResultExplanation(ordered []Execution, req catalog.SearchRequest, total int) string {
	if total > 0 {
		return fmt.Sprintf("page offset %d is beyond the %d ranked matches", req.Offset, total)
	}

	var parts []string
	for _, e := range ordered {
		switch e.Strategy {
		case StrategyGraph:
			switch {
			case e.Outcome.Status == StatusFailed:
				parts = append(parts, "compatibility search unavailable ("+e.Outcome.Reason+")")
			case e.Outcome.Contributed() && len(e.Candidates) == 0:
				parts = append(parts, fmt.Sprintf("no %s is compatible with the selected components", req.ComponentType))
			}
		case StrategyKeyword:
			switch {
			case e.Outcome.Status == StatusFailed:
				parts = append(parts, "keyword search unavailable ("+e.Outcome.Reason+")")
			case e.Outcome.Contributed() && len(e.Candidates) == 0:
				parts = append(parts, "no products matched the given keywords")
			}
		case StrategyFallback:
			switch {
			case e.Outcome.Status == StatusFailed:
				parts = append(parts, "category listing unavailable ("+e.Outcome.Reason+")")
			case e.Outcome.Contributed() && len(e.Candidates) == 0:
				parts = append(parts, fmt.Sprintf("the %s category has no products", req.ComponentType))
			}
		}
	}
	if len(parts) == 0 {
		return "no matches found"
	}
	return "no matches: " + strings.Join(parts, "; ")
}
