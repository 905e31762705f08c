package search

import (
	"context"
	"testing"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/engine/normalize"
	"github.com/beedev/recommenderv3-sub002/engine/relevance"
)

type fakeIndex struct {
	hits     []relevance.Hit
	err      error
	gotTerms []relevance.WeightedTerm
	gotCat   catalog.Category
}

func (f *fakeIndex) SearchWeighted(_ context.Context, category catalog.Category, terms []relevance.WeightedTerm, _ int) ([]relevance.Hit, error) {
	f.gotCat = category
	f.gotTerms = terms
	return f.hits, f.err
}

func testTable(t *testing.T) *normalize.Table {
	t.Helper()
	table, err := normalize.Parse([]byte(`
[cable_length]
"5m" = ["5 m", "5 meter", "5 metres"]
"10m" = ["10 m", "10 meter"]

[cooling]
"water-cooled" = ["water cooled", "watercooled", "wc"]
`))
	if err != nil {
		t.Fatalf("parse table: %v", err)
	}
	return table
}

func TestKeywordStrategyApplicable(t *testing.T) {
	s := NewKeywordStrategy(&fakeIndex{}, testTable(t), nil)

	req := catalog.SearchRequest{ComponentType: catalog.CategoryTorch, Limit: 10}
	if ok, reason := s.Applicable(req); ok || reason != "no keyword signal" {
		t.Fatalf("blank request: ok=%v reason=%q", ok, reason)
	}

	req.FreeText = "  \t "
	if ok, _ := s.Applicable(req); ok {
		t.Fatal("whitespace-only free text is not a signal")
	}

	req.FreeText = "water cooled torch"
	if ok, _ := s.Applicable(req); !ok {
		t.Fatal("free text present: want applicable")
	}
}

// A structured token expands to its canonical value plus every configured
// variant, all weighted by confidence x boost.
func TestKeywordStrategyTokenExpansion(t *testing.T) {
	idx := &fakeIndex{}
	s := NewKeywordStrategy(idx, testTable(t), nil)

	req := catalog.SearchRequest{
		ComponentType: catalog.CategoryTorch,
		Tokens: []catalog.ExtractedToken{
			{ParameterType: "cable_length", Value: "5 meter", Confidence: 0.8, Boost: 2},
		},
		Limit: 10,
	}
	_, outcome := s.Execute(context.Background(), req)
	if outcome.Status != StatusSuccess {
		t.Fatalf("outcome = %v, want success", outcome)
	}

	want := map[string]float64{"5m": 1.6, "5 m": 1.6, "5 meter": 1.6, "5 metres": 1.6}
	if len(idx.gotTerms) != len(want) {
		t.Fatalf("terms = %v, want %d expanded variants", idx.gotTerms, len(want))
	}
	for _, term := range idx.gotTerms {
		w, ok := want[term.Term]
		if !ok {
			t.Errorf("unexpected term %q", term.Term)
			continue
		}
		if term.Weight != w {
			t.Errorf("term %q weight = %v, want %v", term.Term, term.Weight, w)
		}
	}
	if idx.gotCat != catalog.CategoryTorch {
		t.Errorf("category = %s, want Torch", idx.gotCat)
	}
}

func TestKeywordStrategyTokenDefaults(t *testing.T) {
	idx := &fakeIndex{}
	s := NewKeywordStrategy(idx, testTable(t), nil)

	// Unknown token: no expansion, boost defaults to 1.
	req := catalog.SearchRequest{
		ComponentType: catalog.CategoryTorch,
		Tokens:        []catalog.ExtractedToken{{ParameterType: "material", Value: "Aluminium", Confidence: 0.7}},
		Limit:         10,
	}
	if _, outcome := s.Execute(context.Background(), req); outcome.Status != StatusSuccess {
		t.Fatalf("outcome = %v, want success", outcome)
	}
	if len(idx.gotTerms) != 1 {
		t.Fatalf("terms = %v, want the raw token only", idx.gotTerms)
	}
	if idx.gotTerms[0].Term != "aluminium" || idx.gotTerms[0].Weight != 0.7 {
		t.Errorf("term = %+v, want aluminium at weight 0.7", idx.gotTerms[0])
	}
}

func TestKeywordStrategyFreeText(t *testing.T) {
	idx := &fakeIndex{}
	s := NewKeywordStrategy(idx, testTable(t), nil)

	req := catalog.SearchRequest{
		ComponentType: catalog.CategoryTorch,
		FreeText:      "I need a watercooled torch, please!",
		Limit:         10,
	}
	if _, outcome := s.Execute(context.Background(), req); outcome.Status != StatusSuccess {
		t.Fatalf("outcome not success")
	}

	got := make(map[string]float64, len(idx.gotTerms))
	for _, term := range idx.gotTerms {
		got[term.Term] = term.Weight
	}
	// "watercooled" resolves through the table and expands; stop words and the
	// already-selected component type word stay as plain keywords.
	for _, term := range []string{"water-cooled", "water cooled", "watercooled", "wc", "torch"} {
		if got[term] != 1.0 {
			t.Errorf("term %q weight = %v, want 1.0 (all terms: %v)", term, got[term], idx.gotTerms)
		}
	}
	if _, ok := got["need"]; ok {
		t.Error("stop word leaked into terms")
	}
}

func TestKeywordStrategyNoUsableTerms(t *testing.T) {
	s := NewKeywordStrategy(&fakeIndex{}, testTable(t), nil)
	req := catalog.SearchRequest{
		ComponentType: catalog.CategoryTorch,
		FreeText:      "I need a", // stop words only
		Limit:         10,
	}
	cands, outcome := s.Execute(context.Background(), req)
	if outcome.Status != StatusSkipped {
		t.Fatalf("outcome = %v, want skipped", outcome)
	}
	if len(cands) != 0 {
		t.Errorf("skipped execution returned %d candidates", len(cands))
	}
}

func TestKeywordStrategyHitOrdering(t *testing.T) {
	idx := &fakeIndex{hits: []relevance.Hit{
		{Product: catalog.Product{ID: "T-2", Category: catalog.CategoryTorch}, Score: 1.0, Terms: []string{"torch"}},
		{Product: catalog.Product{ID: "T-3", Category: catalog.CategoryTorch}, Score: 2.6, Terms: []string{"torch", "wc"}},
		{Product: catalog.Product{ID: "T-1", Category: catalog.CategoryTorch}, Score: 1.0, Terms: []string{"torch"}},
	}}
	s := NewKeywordStrategy(idx, testTable(t), nil)

	req := catalog.SearchRequest{ComponentType: catalog.CategoryTorch, FreeText: "wc torch", Limit: 10}
	cands, outcome := s.Execute(context.Background(), req)
	if outcome.Status != StatusSuccess {
		t.Fatalf("outcome = %v, want success", outcome)
	}
	want := []string{"T-3", "T-1", "T-2"}
	for i, id := range want {
		if cands[i].Product.ID != id {
			t.Fatalf("position %d = %s, want %s", i, cands[i].Product.ID, id)
		}
	}
	if cands[0].Explanation != "matched: torch, wc" {
		t.Errorf("explanation = %q", cands[0].Explanation)
	}
}

func TestKeywordStrategyBackendFailure(t *testing.T) {
	s := NewKeywordStrategy(&fakeIndex{err: context.DeadlineExceeded}, testTable(t), nil)
	req := catalog.SearchRequest{ComponentType: catalog.CategoryTorch, FreeText: "torch", Limit: 10}
	_, outcome := s.Execute(context.Background(), req)
	if outcome.Status != StatusFailed || outcome.Reason != "timeout" {
		t.Fatalf("outcome = %v, want failed/timeout", outcome)
	}
}
