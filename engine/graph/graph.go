package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/pkg/repo"
)

// Store provides catalog-graph operations on top of the generic Neo4j repository.
// It is read-only from the search engine's perspective; the write paths exist
// for the seed tooling.
type Store struct {
	driver   neo4j.DriverWithContext
	products *repo.Neo4jRepo[catalog.Product, string]
}

// New creates a new Store.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{
		driver:   driver,
		products: newProductRepo(driver),
	}
}

// GetProduct returns a product by catalog identifier.
func (s *Store) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	if err := catalog.ValidateProductID(id); err != nil {
		return catalog.Product{}, err
	}
	return s.products.Get(ctx, id)
}

// TraverseCompatible follows outward COMPATIBLE_WITH edges from the anchor
// products to products of the target category. Each reachable product appears
// once, scored with the minimum priority across all contributing edges.
// Malformed anchor identifiers are rejected before any query runs.
func (s *Store) TraverseCompatible(ctx context.Context, anchorIDs []string, target catalog.Category) ([]Compatible, error) {
	if len(anchorIDs) == 0 {
		return nil, fmt.Errorf("graph: traverse: no anchors")
	}
	for _, id := range anchorIDs {
		if err := catalog.ValidateProductID(id); err != nil {
			return nil, fmt.Errorf("graph: traverse: %w", err)
		}
	}

	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer sess.Close(ctx)

	cypher := `MATCH (a:Product)-[r:` + RelCompatible + `]->(n:Product {category: $category})
		WHERE a.id IN $anchors
		RETURN n, min(coalesce(r.priority, $sentinel)) AS priority
		ORDER BY priority ASC, n.id ASC`
	result, err := sess.Run(ctx, cypher, map[string]any{
		"anchors":  anchorIDs,
		"category": string(target),
		"sentinel": MaxPriority,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: traverse from %d anchors: %w", len(anchorIDs), err)
	}

	var out []Compatible
	for result.Next(ctx) {
		rec := result.Record()
		node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
		if err != nil {
			return nil, fmt.Errorf("graph: traverse: %w", err)
		}
		priority := MaxPriority
		if v, ok := rec.Get("priority"); ok {
			if p, ok := v.(int64); ok {
				priority = p
			}
		}
		out = append(out, Compatible{Product: productFromProps(node.Props), Priority: priority})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("graph: traverse: %w", err)
	}
	return out, nil
}

// ListByCategory returns up to limit products of a category ordered by
// lower-cased display name.
func (s *Store) ListByCategory(ctx context.Context, category catalog.Category, limit int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer sess.Close(ctx)

	cypher := `MATCH (n:Product {category: $category})
		RETURN n ORDER BY toLower(n.name) ASC, n.id ASC LIMIT $limit`
	result, err := sess.Run(ctx, cypher, map[string]any{
		"category": string(category),
		"limit":    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list category %s: %w", category, err)
	}
	return collectProducts(ctx, result)
}

// SaveProduct creates or updates a product node. Seed path only.
func (s *Store) SaveProduct(ctx context.Context, p catalog.Product) error {
	if err := catalog.ValidateProductID(p.ID); err != nil {
		return err
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (n:Product {id: $id}) SET n += $props`
	_, err := sess.Run(ctx, cypher, map[string]any{"id": p.ID, "props": productToMap(p)})
	return err
}

// SaveEdge creates or updates a compatibility edge. Seed path only.
func (s *Store) SaveEdge(ctx context.Context, e CompatibilityEdge) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)
	run := func(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error) {
		return sess.Run(ctx, cypher, params)
	}
	return runSaveEdge(ctx, run, e)
}

// SaveBatch saves products and edges in one transaction. Seed path only.
func (s *Store) SaveBatch(ctx context.Context, products []catalog.Product, edges []CompatibilityEdge) error {
	for _, p := range products {
		if err := catalog.ValidateProductID(p.ID); err != nil {
			return err
		}
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, p := range products {
			cypher := `MERGE (n:Product {id: $id}) SET n += $props`
			if _, err := tx.Run(ctx, cypher, map[string]any{"id": p.ID, "props": productToMap(p)}); err != nil {
				return nil, err
			}
		}
		for _, e := range edges {
			if err := runSaveEdge(ctx, tx.Run, e); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

type runFunc func(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error)

func runSaveEdge(ctx context.Context, run runFunc, e CompatibilityEdge) error {
	if err := catalog.ValidateProductID(e.From); err != nil {
		return err
	}
	if err := catalog.ValidateProductID(e.To); err != nil {
		return err
	}
	priority := e.Priority
	if priority <= 0 {
		priority = MaxPriority
	}
	cypher := `MATCH (a:Product {id: $from}), (b:Product {id: $to})
		MERGE (a)-[r:` + RelCompatible + ` {priority: $priority}]->(b)`
	_, err := run(ctx, cypher, map[string]any{
		"from":     e.From,
		"to":       e.To,
		"priority": priority,
	})
	return err
}

// collectProducts reads all Product nodes from a result set.
func collectProducts(ctx context.Context, result neo4j.ResultWithContext) ([]catalog.Product, error) {
	var items []catalog.Product
	for result.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](result.Record(), "n")
		if err != nil {
			return nil, err
		}
		items = append(items, productFromProps(node.Props))
	}
	return items, result.Err()
}
