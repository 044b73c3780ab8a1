package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Triple is a single (head)-[rel]->(tail) match.
type Triple struct {
	Head     string `json:"head"`
	HeadType string `json:"head_type"`
	Relation string `json:"relation"`
	Tail     string `json:"tail"`
	TailType string `json:"tail_type"`
}

// TwoHopPath is a (head)-[rel1]->(mid)-[rel2]->(tail) match.
type TwoHopPath struct {
	Head      string `json:"head"`
	HeadType  string `json:"head_type"`
	Relation1 string `json:"relation1"`
	Mid       string `json:"mid"`
	MidType   string `json:"mid_type"`
	Relation2 string `json:"relation2"`
	Tail      string `json:"tail"`
	TailType  string `json:"tail_type"`
}

// Intersection is a (head1)-[rel1]->(common)<-[rel2]-(head2) match.
type Intersection struct {
	Head1      string `json:"head1"`
	Head1Type  string `json:"head1_type"`
	Relation1  string `json:"relation1"`
	Common     string `json:"common"`
	CommonType string `json:"common_type"`
	Relation2  string `json:"relation2"`
	Head2      string `json:"head2"`
	Head2Type  string `json:"head2_type"`
}

// AttributeNode is an entity carrying a free-text description.
type AttributeNode struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// RelationTypes returns the distinct relationship types in the store.
func (s *Store) RelationTypes(ctx context.Context) ([]string, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH ()-[r]->() RETURN DISTINCT type(r) AS rel_type", nil)
	if err != nil {
		return nil, err
	}

	var types []string
	for result.Next(ctx) {
		if value := getStringValue(result.Record(), "rel_type"); value != "" {
			types = append(types, value)
		}
	}
	return types, result.Err()
}

// Triples samples one-hop matches for a relationship type. relType is
// a value the store itself reported, so it is quoted verbatim rather
// than rewritten. The LIMIT bounds the candidate pool; callers shuffle
// to avoid overrepresenting high-degree entities.
func (s *Store) Triples(ctx context.Context, relType string, limit int) ([]Triple, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
MATCH (h:Entity)-[r:%s]->(t:Entity)
WHERE h.name IS NOT NULL AND t.name IS NOT NULL
RETURN h.name AS head, h.type AS head_type, type(r) AS relation,
       t.name AS tail, t.type AS tail_type
LIMIT $limit`, quoteRelType(relType))

	result, err := session.Run(ctx, query, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	var triples []Triple
	for result.Next(ctx) {
		record := result.Record()
		triple := Triple{
			Head:     getStringValue(record, "head"),
			HeadType: getStringValue(record, "head_type"),
			Relation: getStringValue(record, "relation"),
			Tail:     getStringValue(record, "tail"),
			TailType: getStringValue(record, "tail_type"),
		}
		if triple.Head == "" || triple.Tail == "" {
			continue
		}
		triples = append(triples, triple)
	}
	return triples, result.Err()
}

// TwoHopPaths samples two-hop matches.
func (s *Store) TwoHopPaths(ctx context.Context, limit int) ([]TwoHopPath, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
MATCH (h:Entity)-[r1]->(m:Entity)-[r2]->(t:Entity)
WHERE h.name IS NOT NULL AND m.name IS NOT NULL AND t.name IS NOT NULL
RETURN h.name AS head, h.type AS head_type, type(r1) AS relation1,
       m.name AS mid, m.type AS mid_type, type(r2) AS relation2,
       t.name AS tail, t.type AS tail_type
LIMIT $limit`

	result, err := session.Run(ctx, query, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	var paths []TwoHopPath
	for result.Next(ctx) {
		record := result.Record()
		path := TwoHopPath{
			Head:      getStringValue(record, "head"),
			HeadType:  getStringValue(record, "head_type"),
			Relation1: getStringValue(record, "relation1"),
			Mid:       getStringValue(record, "mid"),
			MidType:   getStringValue(record, "mid_type"),
			Relation2: getStringValue(record, "relation2"),
			Tail:      getStringValue(record, "tail"),
			TailType:  getStringValue(record, "tail_type"),
		}
		if path.Head == "" || path.Mid == "" || path.Tail == "" {
			continue
		}
		paths = append(paths, path)
	}
	return paths, result.Err()
}

// Intersections samples fan-in matches where two distinct heads point
// at the same common entity.
func (s *Store) Intersections(ctx context.Context, limit int) ([]Intersection, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
MATCH (h1:Entity)-[r1]->(c:Entity)<-[r2]-(h2:Entity)
WHERE h1 <> h2 AND h1.name IS NOT NULL AND c.name IS NOT NULL AND h2.name IS NOT NULL
RETURN h1.name AS head1, h1.type AS head1_type, type(r1) AS relation1,
       c.name AS common, c.type AS common_type, type(r2) AS relation2,
       h2.name AS head2, h2.type AS head2_type
LIMIT $limit`

	result, err := session.Run(ctx, query, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	var intersections []Intersection
	for result.Next(ctx) {
		record := result.Record()
		intersection := Intersection{
			Head1:      getStringValue(record, "head1"),
			Head1Type:  getStringValue(record, "head1_type"),
			Relation1:  getStringValue(record, "relation1"),
			Common:     getStringValue(record, "common"),
			CommonType: getStringValue(record, "common_type"),
			Relation2:  getStringValue(record, "relation2"),
			Head2:      getStringValue(record, "head2"),
			Head2Type:  getStringValue(record, "head2_type"),
		}
		if intersection.Head1 == "" || intersection.Common == "" || intersection.Head2 == "" {
			continue
		}
		intersections = append(intersections, intersection)
	}
	return intersections, result.Err()
}

// AttributeNodes samples entities that carry a description attribute.
func (s *Store) AttributeNodes(ctx context.Context, limit int) ([]AttributeNode, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
MATCH (e:Entity)
WHERE e.name IS NOT NULL AND e.description IS NOT NULL AND e.description <> ''
RETURN e.name AS name, e.type AS type, e.description AS description
LIMIT $limit`

	result, err := session.Run(ctx, query, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	var nodes []AttributeNode
	for result.Next(ctx) {
		record := result.Record()
		node := AttributeNode{
			Name:        getStringValue(record, "name"),
			Type:        getStringValue(record, "type"),
			Description: getStringValue(record, "description"),
		}
		if node.Name == "" || node.Description == "" {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, result.Err()
}

// Helper functions to safely extract values from records.
func getStringValue(record *neo4j.Record, key string) string {
	if val, ok := record.Get(key); ok && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getInt64Value(record *neo4j.Record, key string) int64 {
	if val, ok := record.Get(key); ok && val != nil {
		if num, ok := val.(int64); ok {
			return num
		}
	}
	return 0
}
