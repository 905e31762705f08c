package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/engine/normalize"
	"github.com/beedev/recommenderv3-sub002/engine/relevance"
	"github.com/beedev/recommenderv3-sub002/pkg/resilience"
)

// RelevanceSearcher abstracts the weighted text-relevance index.
type RelevanceSearcher interface {
	SearchWeighted(ctx context.Context, category catalog.Category, terms []relevance.WeightedTerm, limit int) ([]relevance.Hit, error)
}

// defaultKeywordLimit bounds how many hits the strategy requests per search.
const defaultKeywordLimit = 50

// KeywordStrategy scores candidates against the text-relevance index, weighting
// term contributions by extracted-token confidence x boost and expanding tokens
// to their configured synonym variants.
type KeywordStrategy struct {
	index   RelevanceSearcher
	table   *normalize.Table
	breaker *resilience.Breaker
	logger  *slog.Logger
	limit   int
}

// NewKeywordStrategy creates the weighted-keyword strategy.
func NewKeywordStrategy(index RelevanceSearcher, table *normalize.Table, logger *slog.Logger) *KeywordStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordStrategy{
		index:   index,
		table:   table,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:  logger,
		limit:   defaultKeywordLimit,
	}
}

func (s *KeywordStrategy) Name() string { return StrategyKeyword }

func (s *KeywordStrategy) Applicable(req catalog.SearchRequest) (bool, string) {
	if len(req.Tokens) == 0 && strings.TrimSpace(req.FreeText) == "" {
		return false, "no keyword signal"
	}
	return true, ""
}

func (s *KeywordStrategy) Execute(ctx context.Context, req catalog.SearchRequest) ([]Candidate, Outcome) {
	terms := s.buildTerms(req)
	if len(terms) == 0 {
		return nil, Skipped("no usable terms")
	}

	var hits []relevance.Hit
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		hits, callErr = s.index.SearchWeighted(ctx, req.ComponentType, terms, s.limit)
		return callErr
	})
	if err != nil {
		s.logger.Warn("keyword strategy failed", "terms", len(terms), "err", err)
		return nil, failureOutcome(err)
	}

	// Zero matches from a healthy index is a valid, common outcome.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Product.ID < hits[j].Product.ID
	})

	candidates := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, Candidate{
			Product:     h.Product,
			Score:       h.Score,
			Strategy:    StrategyKeyword,
			Explanation: "matched: " + strings.Join(h.Terms, ", "),
		})
	}
	return candidates, Success()
}

// buildTerms turns structured tokens (or, failing that, free text) into
// weighted terms, expanding each through the normalization table so any
// configured variant matches.
func (s *KeywordStrategy) buildTerms(req catalog.SearchRequest) []relevance.WeightedTerm {
	weights := make(map[string]float64)
	var order []string

	add := func(term string, weight float64) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || weight <= 0 {
			return
		}
		if prev, ok := weights[term]; ok {
			if weight > prev {
				weights[term] = weight
			}
			return
		}
		weights[term] = weight
		order = append(order, term)
	}

	expand := func(raw string, weight float64, entry normalize.Entry, found bool) {
		if !found {
			add(raw, weight)
			return
		}
		add(entry.Canonical, weight)
		for _, v := range entry.Variants {
			add(v, weight)
		}
	}

	if len(req.Tokens) > 0 {
		for _, tok := range req.Tokens {
			boost := tok.Boost
			if boost == 0 {
				boost = 1
			}
			weight := tok.Confidence * boost
			entry, ok := s.table.Lookup(tok.ParameterType, tok.Value)
			expand(tok.Value, weight, entry, ok)
		}
	} else {
		for _, kw := range extractKeywords(req.FreeText) {
			entry, ok := s.table.LookupAny(kw)
			expand(kw, 1.0, entry, ok)
		}
	}

	terms := make([]relevance.WeightedTerm, 0, len(order))
	for _, t := range order {
		terms = append(terms, relevance.WeightedTerm{Term: t, Weight: weights[t]})
	}
	return terms
}

// stopWords are filtered out of free-text keyword derivation.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "to": true,
	"of": true, "in": true, "for": true, "on": true, "with": true,
	"at": true, "by": true, "from": true, "as": true, "into": true,
	"need": true, "want": true, "like": true, "please": true,
	"what": true, "where": true, "when": true, "how": true, "which": true,
	"who": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "me": true, "my": true, "it": true, "its": true,
	"and": true, "but": true, "or": true, "not": true,
}

// extractKeywords does simple keyword extraction from a user utterance.
func extractKeywords(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	var keywords []string
	for _, w := range words {
		w = strings.Trim(w, "?.,!;:'\"")
		if len(w) > 1 && !stopWords[w] {
			keywords = append(keywords, w)
		}
	}
	return keywords
}
