package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/pkg/repo"
)

// newProductRepo creates a Neo4j-backed repository for Product nodes.
func newProductRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[catalog.Product, string] {
	return repo.NewNeo4jRepo[catalog.Product, string](
		driver,
		"Product",
		productToMap,
		productFromRecord,
	)
}

// productToMap flattens a product into node properties. Open attributes are
// prefixed attr_ so they survive the round trip without colliding with the
// fixed properties.
func productToMap(p catalog.Product) map[string]any {
	m := map[string]any{
		"id":          p.ID,
		"category":    string(p.Category),
		"name":        p.Name,
		"description": p.Description,
		"is_default":  p.IsDefault,
	}
	for k, v := range p.Attributes {
		m["attr_"+k] = v
	}
	return m
}

func productFromRecord(rec *neo4j.Record) (catalog.Product, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return catalog.Product{}, err
	}
	return productFromProps(node.Props), nil
}

// productFromProps constructs a Product from Neo4j node properties.
func productFromProps(props map[string]any) catalog.Product {
	p := catalog.Product{
		ID:          strProp(props, "id"),
		Category:    catalog.Category(strProp(props, "category")),
		Name:        strProp(props, "name"),
		Description: strProp(props, "description"),
		Attributes:  make(map[string]any),
	}
	if v, ok := props["is_default"].(bool); ok {
		p.IsDefault = v
	}
	for k, v := range props {
		if len(k) > 5 && k[:5] == "attr_" {
			switch tv := v.(type) {
			case string, int64, float64, bool:
				p.Attributes[k[5:]] = tv
			}
		}
	}
	return p
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
