// Command seed loads a catalog fixture (products plus compatibility edges)
// into Neo4j and the Qdrant relevance index. Safe to rerun: products and edges
// are merged, index points are upserted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/engine/graph"
	"github.com/beedev/recommenderv3-sub002/engine/relevance"
	"github.com/beedev/recommenderv3-sub002/pkg/fn"
)

// Fixture is the on-disk seed format.
type Fixture struct {
	Products []catalog.Product         `json:"products"`
	Edges    []graph.CompatibilityEdge `json:"edges"`
}

const batchSize = 100

func main() {
	_ = godotenv.Load()

	fixturePath := flag.String("fixture", "config/catalog.json", "path to the catalog fixture")
	skipIndex := flag.Bool("skip-index", false, "seed the graph only")
	workers := flag.Int("workers", 4, "concurrent index batches")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("fixture: %v", err)
	}

	products, edges := clean(fixture)
	log.Printf("fixture: %d products, %d edges (after cleanup)", len(products), len(edges))

	// --- Graph ---
	driver, err := neo4j.NewDriverWithContext(
		envOr("NEO4J_URL", "neo4j://localhost:7687"),
		neo4j.BasicAuth(envOr("NEO4J_USER", "neo4j"), envOr("NEO4J_PASS", "password"), ""),
	)
	if err != nil {
		log.Fatalf("neo4j connect: %v", err)
	}
	defer driver.Close(ctx)

	gs := graph.New(driver)
	if err := seedGraph(ctx, gs, products, edges); err != nil {
		log.Fatalf("seed graph: %v", err)
	}
	log.Printf("graph seeded")

	if *skipIndex {
		return
	}

	// --- Relevance index ---
	index, err := relevance.New(envOr("QDRANT_URL", "localhost:6334"), envOr("QDRANT_COLLECTION", "catalog"))
	if err != nil {
		log.Fatalf("qdrant connect: %v", err)
	}
	defer index.Close()

	if err := seedIndex(ctx, index, products, *workers); err != nil {
		log.Fatalf("seed index: %v", err)
	}
	log.Printf("done: %d products indexed", len(products))
}

func loadFixture(path string) (Fixture, error) {
	var f Fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	err = json.Unmarshal(data, &f)
	return f, err
}

// clean drops entries the engine would reject and dedups by id, keeping the
// first occurrence. Dropped rows are logged rather than failing the run.
func clean(f Fixture) ([]catalog.Product, []graph.CompatibilityEdge) {
	valid := fn.Filter(f.Products, func(p catalog.Product) bool {
		if err := catalog.ValidateProductID(p.ID); err != nil {
			log.Printf("drop product %q: %v", p.ID, err)
			return false
		}
		if !catalog.ValidCategories[p.Category] {
			log.Printf("drop product %q: unknown category %q", p.ID, p.Category)
			return false
		}
		return true
	})
	products := fn.UniqueBy(valid, func(p catalog.Product) string { return p.ID })

	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}
	edges := fn.Filter(f.Edges, func(e graph.CompatibilityEdge) bool {
		if !known[e.From] || !known[e.To] {
			log.Printf("drop edge %s->%s: unknown endpoint", e.From, e.To)
			return false
		}
		return true
	})
	return products, edges
}

func seedGraph(ctx context.Context, gs *graph.Store, products []catalog.Product, edges []graph.CompatibilityEdge) error {
	productChunks := fn.Chunk(products, batchSize)
	edgeChunks := fn.Chunk(edges, batchSize)

	for i, chunk := range productChunks {
		r := fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) fn.Result[int] {
			if err := gs.SaveBatch(ctx, chunk, nil); err != nil {
				return fn.Errf[int]("product batch %d: %w", i, err)
			}
			return fn.Ok(len(chunk))
		})
		if _, err := r.Unwrap(); err != nil {
			return err
		}
	}
	for i, chunk := range edgeChunks {
		r := fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) fn.Result[int] {
			if err := gs.SaveBatch(ctx, nil, chunk); err != nil {
				return fn.Errf[int]("edge batch %d: %w", i, err)
			}
			return fn.Ok(len(chunk))
		})
		if _, err := r.Unwrap(); err != nil {
			return err
		}
	}
	return nil
}

func seedIndex(ctx context.Context, index *relevance.Index, products []catalog.Product, workers int) error {
	if err := index.EnsureCollection(ctx); err != nil {
		return err
	}
	results := fn.ParMapResult(fn.Chunk(products, batchSize), workers, func(chunk []catalog.Product) fn.Result[int] {
		if err := index.IndexProducts(ctx, chunk); err != nil {
			return fn.Err[int](err)
		}
		return fn.Ok(len(chunk))
	})
	_, err := fn.Collect(results).Unwrap()
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
