package search

import (
	"sort"
	"strings"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
)

// RankContext carries the request-scoped inputs to ranking.
type RankContext struct {
	Query string
}

// Rank orders products by the final deterministic key: default products first,
// then products whose display name contains the query, then lower-cased name,
// with catalog id as the last tiebreak. Pure: identical inputs in any order
// produce identical output, independent of timing or prior calls.
func Rank(products []catalog.Product, rc RankContext) []catalog.Product {
	out := make([]catalog.Product, len(products))
	copy(out, products)

	query := strings.ToLower(strings.TrimSpace(rc.Query))
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := rankDefault(out[i]), rankDefault(out[j])
		if di != dj {
			return di < dj
		}
		qi, qj := rankQueryMatch(out[i], query), rankQueryMatch(out[j], query)
		if qi != qj {
			return qi < qj
		}
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func rankDefault(p catalog.Product) int {
	if p.IsDefault {
		return 0
	}
	return 1
}

func rankQueryMatch(p catalog.Product, query string) int {
	if query != "" && strings.Contains(strings.ToLower(p.Name), query) {
		return 0
	}
	return 1
}
