// Package graph provides Neo4j catalog-graph operations: product nodes joined
// by directed COMPATIBLE_WITH edges that carry an integer priority.
package graph

import "github.com/beedev/recommenderv3-sub002/engine/catalog"

// MaxPriority is the sentinel used when an edge carries no priority property.
// Lower priority is preferred, so absent means "least preferred".
const MaxPriority int64 = 1<<31 - 1

// RelCompatible is the single relationship type the engine traverses.
const RelCompatible = "COMPATIBLE_WITH"

// CompatibilityEdge is a directed pairing relation between two products.
// Multiple edges between the same pair may exist; traversal aggregates by
// minimum priority.
type CompatibilityEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Priority int64  `json:"priority"`
}

// Compatible is one traversal result: a reachable product together with the
// minimum edge priority observed from any anchor.
type Compatible struct {
	Product  catalog.Product `json:"product"`
	Priority int64           `json:"priority"`
}
