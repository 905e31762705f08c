package search

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
)

func TestRankOrdering(t *testing.T) {
	products := []catalog.Product{
		{ID: "F-300", Name: "RoboFeed 300"},
		{ID: "F-200", Name: "AristoFeed 200", IsDefault: true},
		{ID: "F-100", Name: "aristofeed 100"},
		{ID: "F-400", Name: "AristoFeed 100"},
	}

	got := Rank(products, RankContext{Query: "robofeed"})

	want := []string{"F-200", "F-300", "F-400", "F-100"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %s, want %s (full: %v)", i, got[i].ID, id, ids(got))
		}
	}
}

func TestRankDefaultBeatsQueryMatch(t *testing.T) {
	products := []catalog.Product{
		{ID: "P1", Name: "Warrior 500i"},
		{ID: "P2", Name: "Renegade ES300", IsDefault: true},
	}
	got := Rank(products, RankContext{Query: "warrior"})
	if got[0].ID != "P2" {
		t.Fatalf("default product must rank first, got %v", ids(got))
	}
}

func TestRankIDTiebreak(t *testing.T) {
	products := []catalog.Product{
		{ID: "P9", Name: "Same Name"},
		{ID: "P1", Name: "Same Name"},
		{ID: "P5", Name: "same name"},
	}
	got := Rank(products, RankContext{})
	want := []string{"P1", "P5", "P9"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

// Shuffling the input must never change the output: ranking is a pure function
// of the set, not of arrival order.
func TestRankOrderIndependent(t *testing.T) {
	products := []catalog.Product{
		{ID: "A", Name: "Gamma"},
		{ID: "B", Name: "Alpha", IsDefault: true},
		{ID: "C", Name: "Beta"},
		{ID: "D", Name: "Alpha"},
		{ID: "E", Name: "beta torch"},
	}

	baseline := ids(Rank(products, RankContext{Query: "beta"}))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]catalog.Product, len(products))
		copy(shuffled, products)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := ids(Rank(shuffled, RankContext{Query: "beta"})); !reflect.DeepEqual(got, baseline) {
			t.Fatalf("iteration %d: got %v, want %v", i, got, baseline)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	products := []catalog.Product{
		{ID: "Z", Name: "Zeta"},
		{ID: "A", Name: "Alpha"},
	}
	Rank(products, RankContext{})
	if products[0].ID != "Z" || products[1].ID != "A" {
		t.Fatalf("input slice reordered: %v", ids(products))
	}
}

func ids(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
