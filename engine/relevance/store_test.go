package relevance

import (
	"testing"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
)

func TestPointIDStable(t *testing.T) {
	a := pointID("PS-100")
	b := pointID("PS-100")
	if a != b {
		t.Fatalf("pointID not stable: %d != %d", a, b)
	}
	if pointID("PS-100") == pointID("PS-101") {
		t.Fatal("distinct ids collided")
	}
}

func TestProductPayloadRoundTrip(t *testing.T) {
	p := catalog.Product{
		ID:          "F-200",
		Category:    catalog.CategoryFeeder,
		Name:        "Robust Feed Pro",
		Description: "Wire feeder with 5m cable",
		IsDefault:   true,
	}
	got := productFromPayload(productPayload(p))
	if got.ID != p.ID || got.Category != p.Category || got.Name != p.Name {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.IsDefault {
		t.Fatal("lost is_default")
	}
}

func TestMatchText(t *testing.T) {
	p := catalog.Product{Name: "Robust Feed PRO", Description: "5 M Cable"}
	if got := matchText(p); got != "robust feed pro 5 m cable" {
		t.Fatalf("matchText = %q", got)
	}
}

func TestAccumulate(t *testing.T) {
	byProduct := make(map[string]*Hit)
	p := catalog.Product{ID: "F-200", Category: catalog.CategoryFeeder}

	accumulate(byProduct, p, "5m", 0.5)
	accumulate(byProduct, p, "cable", 0.25)
	accumulate(byProduct, p, "5m", 0.5) // duplicate term still adds weight, not the term

	h := byProduct["F-200"]
	if h == nil {
		t.Fatal("missing hit")
	}
	if h.Score != 1.25 {
		t.Fatalf("score = %g, want 1.25", h.Score)
	}
	if len(h.Terms) != 2 {
		t.Fatalf("terms = %v", h.Terms)
	}
}

func TestTopHitsOrderingAndTruncation(t *testing.T) {
	byProduct := map[string]*Hit{
		"B": {Product: catalog.Product{ID: "B"}, Score: 1.0},
		"A": {Product: catalog.Product{ID: "A"}, Score: 1.0},
		"C": {Product: catalog.Product{ID: "C"}, Score: 3.0},
		"D": {Product: catalog.Product{ID: "D"}, Score: 0.5},
	}
	hits := topHits(byProduct, 3)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	// Score descending, id ascending on ties.
	want := []string{"C", "A", "B"}
	for i, id := range want {
		if hits[i].Product.ID != id {
			t.Fatalf("position %d: got %s, want %s (hits=%v)", i, hits[i].Product.ID, id, hits)
		}
	}
}
