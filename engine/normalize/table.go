// Package normalize maps free-text tokens to canonical parameter values via a
// synonym table loaded once at process start. A lookup miss is a normal,
// non-error outcome: callers fall back to the raw token.
package normalize

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// MaxVariants bounds the variant list per canonical value. Larger lists are a
// configuration error, not a bigger vocabulary.
const MaxVariants = 64

// Configuration errors are fatal at load time.
var (
	ErrEmptyVariantList = errors.New("empty variant list")
	ErrEmptyVariant     = errors.New("empty variant string")
	ErrTooManyVariants  = errors.New("variant list exceeds bound")
	ErrNoParameters     = errors.New("no parameter types defined")
)

// Entry is one canonical value with its accepted literal variants.
type Entry struct {
	Canonical string
	Variants  []string
}

// Table is the immutable, process-wide normalization table.
type Table struct {
	// per parameter type: lowercased variant -> entry
	params map[string]map[string]Entry
	// parameter types in sorted order, for deterministic cross-type lookup
	order []string
}

// document is the on-disk shape: parameter type -> canonical -> variants.
type document map[string]map[string][]string

// Load reads and validates a TOML normalization document from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("normalize: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Table from TOML bytes, rejecting malformed configuration.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("normalize: decode document: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("normalize: %w", ErrNoParameters)
	}

	t := &Table{params: make(map[string]map[string]Entry, len(doc))}
	for paramType, canonicals := range doc {
		lookup := make(map[string]Entry)
		for canonical, variants := range canonicals {
			if len(variants) == 0 {
				return nil, fmt.Errorf("normalize: %s.%s: %w", paramType, canonical, ErrEmptyVariantList)
			}
			if len(variants) > MaxVariants {
				return nil, fmt.Errorf("normalize: %s.%s: %d variants: %w",
					paramType, canonical, len(variants), ErrTooManyVariants)
			}
			entry := Entry{Canonical: canonical, Variants: make([]string, 0, len(variants))}
			for _, v := range variants {
				v = strings.TrimSpace(v)
				if v == "" {
					return nil, fmt.Errorf("normalize: %s.%s: %w", paramType, canonical, ErrEmptyVariant)
				}
				entry.Variants = append(entry.Variants, v)
			}
			// The canonical value always matches itself.
			lookup[strings.ToLower(canonical)] = entry
			for _, v := range entry.Variants {
				lookup[strings.ToLower(v)] = entry
			}
		}
		t.params[paramType] = lookup
		t.order = append(t.order, paramType)
	}
	sort.Strings(t.order)
	return t, nil
}

// Lookup resolves rawToken against the given parameter type. The second return
// is false on a miss; the caller should then use the raw token unchanged.
func (t *Table) Lookup(parameterType, rawToken string) (Entry, bool) {
	lookup, ok := t.params[parameterType]
	if !ok {
		return Entry{}, false
	}
	e, ok := lookup[strings.ToLower(strings.TrimSpace(rawToken))]
	return e, ok
}

// LookupAny resolves rawToken against all parameter types in deterministic
// order. Used for free-text terms that carry no parameter type tag.
func (t *Table) LookupAny(rawToken string) (Entry, bool) {
	key := strings.ToLower(strings.TrimSpace(rawToken))
	for _, paramType := range t.order {
		if e, ok := t.params[paramType][key]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// ParameterTypes returns the configured parameter types in sorted order.
func (t *Table) ParameterTypes() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
