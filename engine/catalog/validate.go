package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// Product IDs: opaque catalog identifiers, alphanumeric plus ._/- separators,
// bounded length. Stores must reject anything else rather than returning empty.
var productIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{0,63}$`)

// ValidateProductID checks a catalog identifier.
func ValidateProductID(id string) error {
	if !productIDRegex.MatchString(id) {
		return NewValidationError("product_id", id, ErrMalformedProductID)
	}
	return nil
}

// ValidateRequest validates a SearchRequest before any strategy executes.
func ValidateRequest(r SearchRequest) error {
	if !ValidCategories[r.ComponentType] {
		return NewValidationError("component_type", string(r.ComponentType), ErrUnknownCategory)
	}
	if r.Limit <= 0 {
		return NewValidationError("limit", fmt.Sprintf("%d", r.Limit), ErrInvalidLimit)
	}
	if r.Offset < 0 {
		return NewValidationError("offset", fmt.Sprintf("%d", r.Offset), ErrInvalidOffset)
	}
	for cat, sel := range r.Selected {
		if !ValidCategories[cat] {
			return NewValidationError("selected_components", string(cat), ErrUnknownCategory)
		}
		if err := ValidateProductID(sel.ProductID); err != nil {
			return err
		}
	}
	for _, tok := range r.Tokens {
		if tok.Confidence < 0 || tok.Confidence > 1 {
			return NewValidationError("tokens", fmt.Sprintf("%s=%g", tok.Value, tok.Confidence), ErrInvalidConfidence)
		}
		if strings.TrimSpace(tok.Value) == "" {
			return NewValidationError("tokens", tok.ParameterType, ErrInvalidRequest)
		}
	}
	return nil
}
