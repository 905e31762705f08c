package normalize

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const sampleDoc = `
[cable_length]
"5m" = ["5m", "5 m", "five meter"]
"10m" = ["10m", "10 m"]

[cooling]
water = ["water-cooled", "liquid"]
air = ["air-cooled", "gas"]
`

func TestParseAndLookup(t *testing.T) {
	tb, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		paramType, raw string
		wantCanonical  string
		wantOK         bool
	}{
		{"cable_length", "5m", "5m", true},
		{"cable_length", "5 M", "5m", true},
		{"cable_length", "  Five Meter ", "5m", true},
		{"cable_length", "10 m", "10m", true},
		{"cooling", "LIQUID", "water", true},
		{"cooling", "water", "water", true}, // canonical matches itself
		{"cable_length", "7m", "", false},
		{"voltage", "400V", "", false}, // unknown parameter type
	}
	for _, tt := range tests {
		e, ok := tb.Lookup(tt.paramType, tt.raw)
		if ok != tt.wantOK {
			t.Errorf("Lookup(%q, %q) ok = %v, want %v", tt.paramType, tt.raw, ok, tt.wantOK)
			continue
		}
		if ok && e.Canonical != tt.wantCanonical {
			t.Errorf("Lookup(%q, %q) = %q, want %q", tt.paramType, tt.raw, e.Canonical, tt.wantCanonical)
		}
	}
}

func TestLookupAny(t *testing.T) {
	tb, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, ok := tb.LookupAny("5 m")
	if !ok || e.Canonical != "5m" {
		t.Fatalf("LookupAny(5 m) = %+v ok=%v", e, ok)
	}
	if _, ok := tb.LookupAny("unrelated"); ok {
		t.Fatal("expected miss for unrelated token")
	}
}

func TestParseRejectsEmptyVariantList(t *testing.T) {
	_, err := Parse([]byte("[cable_length]\n\"5m\" = []\n"))
	if !errors.Is(err, ErrEmptyVariantList) {
		t.Fatalf("got %v, want ErrEmptyVariantList", err)
	}
}

func TestParseRejectsBlankVariant(t *testing.T) {
	_, err := Parse([]byte("[cable_length]\n\"5m\" = [\"5m\", \"  \"]\n"))
	if !errors.Is(err, ErrEmptyVariant) {
		t.Fatalf("got %v, want ErrEmptyVariant", err)
	}
}

func TestParseRejectsOversizedVariantList(t *testing.T) {
	variants := make([]string, MaxVariants+1)
	for i := range variants {
		variants[i] = fmt.Sprintf("\"v%d\"", i)
	}
	doc := "[cable_length]\n\"5m\" = [" + strings.Join(variants, ", ") + "]\n"
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrTooManyVariants) {
		t.Fatalf("got %v, want ErrTooManyVariants", err)
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	_, err := Parse([]byte(""))
	if !errors.Is(err, ErrNoParameters) {
		t.Fatalf("got %v, want ErrNoParameters", err)
	}
}

func TestParameterTypesSorted(t *testing.T) {
	tb, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := tb.ParameterTypes()
	if len(got) != 2 || got[0] != "cable_length" || got[1] != "cooling" {
		t.Fatalf("ParameterTypes = %v", got)
	}
}
