// Package relevance owns all Qdrant operations for the product text-relevance
// index. Products are stored as payload-only points; weighted term search runs
// one full-text filtered scan per term and accumulates weight-scaled scores.
package relevance

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
)

// termScanLimit caps the points scanned per term. A term matching more points
// than this cannot meaningfully discriminate anyway.
const termScanLimit = 256

// Index is the sole owner of all Qdrant operations.
type Index struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates an Index connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*Index, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("relevance: dial qdrant %s: %w", addr, err)
	}
	return &Index{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (x *Index) Close() error {
	return x.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist. The index is
// payload-only; the single-dimension vector config just satisfies the store.
func (x *Index) EnsureCollection(ctx context.Context) error {
	list, err := x.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("relevance: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == x.collection {
			return nil
		}
	}

	_, err = x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     1,
					Distance: pb.Distance_Dot,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("relevance: create collection %s: %w", x.collection, err)
	}
	return nil
}

// DeleteCollection deletes the collection.
func (x *Index) DeleteCollection(ctx context.Context) error {
	_, err := x.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: x.collection,
	})
	if err != nil {
		return fmt.Errorf("relevance: delete collection %s: %w", x.collection, err)
	}
	return nil
}

// IndexProducts upserts products into the index. Called by the seed tooling.
func (x *Index) IndexProducts(ctx context.Context, products []catalog.Product) error {
	if len(products) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(products))
	for i, p := range products {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Num{Num: pointID(p.ID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: []float32{0}},
				},
			},
			Payload: productPayload(p),
		}
	}

	wait := true
	_, err := x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: x.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("relevance: upsert %d points: %w", len(products), err)
	}
	return nil
}

// SearchWeighted scans the index once per weighted term, restricted to the
// category, and returns per-product accumulated scores. Zero matches is a
// normal outcome, not an error.
func (x *Index) SearchWeighted(ctx context.Context, category catalog.Category, terms []WeightedTerm, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	byProduct := make(map[string]*Hit)
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term.Term))
		if t == "" || term.Weight <= 0 {
			continue
		}

		scanLimit := uint32(termScanLimit)
		resp, err := x.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: x.collection,
			Limit:          &scanLimit,
			Filter: &pb.Filter{
				Must: []*pb.Condition{
					fieldMatch("category", string(category)),
					textMatch("text", t),
				},
			},
			WithPayload: &pb.WithPayloadSelector{
				SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("relevance: term %q: %w", t, err)
		}

		for _, point := range resp.GetResult() {
			p := productFromPayload(point.GetPayload())
			if p.ID == "" {
				continue
			}
			accumulate(byProduct, p, t, term.Weight)
		}
	}

	return topHits(byProduct, limit), nil
}

// accumulate folds one term match into the per-product score map.
func accumulate(byProduct map[string]*Hit, p catalog.Product, term string, weight float64) {
	h, ok := byProduct[p.ID]
	if !ok {
		h = &Hit{Product: p}
		byProduct[p.ID] = h
	}
	h.Score += weight
	for _, seen := range h.Terms {
		if seen == term {
			return
		}
	}
	h.Terms = append(h.Terms, term)
}

// topHits orders accumulated hits by score descending, product id ascending,
// and truncates to limit. The id tiebreak keeps the result deterministic.
func topHits(byProduct map[string]*Hit, limit int) []Hit {
	hits := make([]Hit, 0, len(byProduct))
	for _, h := range byProduct {
		hits = append(hits, *h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Product.ID < hits[j].Product.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// pointID derives a stable numeric point id from a catalog identifier.
func pointID(productID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(productID))
	return h.Sum64()
}

// productPayload flattens a product into point payload. The "text" field is
// the lower-cased match target for full-text conditions.
func productPayload(p catalog.Product) map[string]*pb.Value {
	return map[string]*pb.Value{
		"product_id":  {Kind: &pb.Value_StringValue{StringValue: p.ID}},
		"category":    {Kind: &pb.Value_StringValue{StringValue: string(p.Category)}},
		"name":        {Kind: &pb.Value_StringValue{StringValue: p.Name}},
		"description": {Kind: &pb.Value_StringValue{StringValue: p.Description}},
		"is_default":  {Kind: &pb.Value_BoolValue{BoolValue: p.IsDefault}},
		"text":        {Kind: &pb.Value_StringValue{StringValue: matchText(p)}},
	}
}

// matchText builds the lower-cased searchable text for a product.
func matchText(p catalog.Product) string {
	return strings.ToLower(strings.TrimSpace(p.Name + " " + p.Description))
}

func productFromPayload(payload map[string]*pb.Value) catalog.Product {
	p := catalog.Product{
		ID:          payload["product_id"].GetStringValue(),
		Category:    catalog.Category(payload["category"].GetStringValue()),
		Name:        payload["name"].GetStringValue(),
		Description: payload["description"].GetStringValue(),
	}
	if v, ok := payload["is_default"]; ok {
		p.IsDefault = v.GetBoolValue()
	}
	return p
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func textMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Text{Text: value},
				},
			},
		},
	}
}
