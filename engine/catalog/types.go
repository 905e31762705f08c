// Package catalog defines core domain types, constants, and validation for the
// configurator search engine. It acts as the validation gate at engine entry points.
package catalog

import "sort"

// Category classifies a catalog product into a configuration slot.
type Category string

const (
	CategoryPowerSource          Category = "PowerSource"
	CategoryFeeder               Category = "Feeder"
	CategoryCooler               Category = "Cooler"
	CategoryTorch                Category = "Torch"
	CategoryRemote               Category = "Remote"
	CategoryInterconnection      Category = "Interconnection"
	CategoryFeederAccessory      Category = "FeederAccessory"
	CategoryPowerSourceAccessory Category = "PowerSourceAccessory"
)

// ValidCategories is the set of recognised product categories.
var ValidCategories = map[Category]bool{
	CategoryPowerSource: true, CategoryFeeder: true, CategoryCooler: true,
	CategoryTorch: true, CategoryRemote: true, CategoryInterconnection: true,
	CategoryFeederAccessory: true, CategoryPowerSourceAccessory: true,
}

// Product is a catalog item. The engine only ever reads products; all catalog
// mutation happens upstream.
type Product struct {
	ID          string         `json:"id"`
	Category    Category       `json:"category"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"` // string, number, or bool values
	IsDefault   bool           `json:"is_default,omitempty"`
}

// SelectedComponent is an already-chosen configuration slot, supplied per request.
type SelectedComponent struct {
	Category    Category `json:"category"`
	ProductID   string   `json:"product_id"`
	DisplayName string   `json:"display_name,omitempty"`
}

// ExtractedToken is a structured keyword token extracted upstream from the user
// utterance, tagged with a parameter type and scoring hints.
type ExtractedToken struct {
	ParameterType string  `json:"parameter_type"`
	Value         string  `json:"value"`
	Confidence    float64 `json:"confidence"` // in [0,1]
	Boost         float64 `json:"boost"`      // defaults to 1 when zero
}

// SearchRequest describes one search invocation. Immutable for its lifetime;
// absence of a category in Selected means "not yet selected", never an
// exclusion filter.
type SearchRequest struct {
	ComponentType    Category                       `json:"component_type"`
	Selected         map[Category]SelectedComponent `json:"selected_components,omitempty"`
	MasterParameters map[string]string              `json:"master_parameters,omitempty"`
	FreeText         string                         `json:"free_text,omitempty"`
	Tokens           []ExtractedToken               `json:"tokens,omitempty"`
	Limit            int                            `json:"limit"`
	Offset           int                            `json:"offset"`
}

// AnchorIDs returns the product IDs of all selected components in a stable
// (category-sorted) order.
func (r SearchRequest) AnchorIDs() []string {
	if len(r.Selected) == 0 {
		return nil
	}
	cats := make([]string, 0, len(r.Selected))
	for c := range r.Selected {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	ids := make([]string, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, r.Selected[Category(c)].ProductID)
	}
	return ids
}
