package graph

import (
	"fmt"

	"github.com/WessleyAI/wessley-circuits/engine/catalog"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

func componentToMap(c catalog.Component, order int) map[string]any {
	terms := make([]map[string]any, 0, len(c.Terminals))
	for i, t := range c.Terminals {
		terms = append(terms, map[string]any{
			"id":       t.ID,
			"type":     t.Type,
			"position": string(t.Position),
			"color":    t.Color,
			"order":    i,
		})
	}
	return map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"category":    string(c.Category),
		"order":       order,
		"requires":    nonNil(c.Requires),
		"required_by": nonNil(c.RequiredBy),
		"terminals":   terms,
	}
}

// nonNil keeps Neo4j from storing a null list property.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func componentFromRecord(rec *neo4j.Record) (catalog.Component, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return catalog.Component{}, err
	}
	c := catalog.Component{
		ID:         strProp(node.Props, "id"),
		Name:       strProp(node.Props, "name"),
		Category:   catalog.Category(strProp(node.Props, "category")),
		Requires:   strsProp(node.Props, "requires"),
		RequiredBy: strsProp(node.Props, "required_by"),
	}
	if c.ID == "" {
		return catalog.Component{}, fmt.Errorf("component node %s has no id", node.ElementId)
	}

	raw, _ := rec.Get("terminals")
	list, _ := raw.([]any)
	for _, item := range list {
		t, ok := item.(dbtype.Node)
		if !ok {
			continue
		}
		id := strProp(t.Props, "id")
		if id == "" {
			continue
		}
		c.Terminals = append(c.Terminals, catalog.Terminal{
			ID:       id,
			Type:     strProp(t.Props, "type"),
			Position: catalog.Side(strProp(t.Props, "position")),
			Color:    strProp(t.Props, "color"),
		})
	}
	return c, nil
}

func strProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func strsProp(props map[string]any, key string) []string {
	switch v := props[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
