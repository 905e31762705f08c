package relevance

import "github.com/beedev/recommenderv3-sub002/engine/catalog"

// WeightedTerm is one search term with its contribution weight. Weights come
// from upstream token extraction (confidence x boost) or default to 1 for
// plain free-text terms.
type WeightedTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Hit is one relevance match. The product is hydrated from the point payload
// so callers need no second store round trip.
type Hit struct {
	Product catalog.Product `json:"product"`
	Score   float64         `json:"score"`
	Terms   []string        `json:"terms,omitempty"` // terms that matched this product
}
