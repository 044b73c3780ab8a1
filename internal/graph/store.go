package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const defaultBatchSize = 200

// Store wraps a Neo4j driver and provides idempotent write and
// sampling operations over the knowledge graph.
type Store struct {
	driver    neo4j.DriverWithContext
	database  string
	batchSize int
}

// Open connects to Neo4j and verifies connectivity. A connection
// failure here is fatal for every command that needs the store.
func Open(ctx context.Context, uri, user, password, database string) (*Store, error) {
	auth := neo4j.NoAuth()
	if user != "" || password != "" {
		auth = neo4j.BasicAuth(user, password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity check failed: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Store{
		driver:    driver,
		database:  database,
		batchSize: defaultBatchSize,
	}, nil
}

// SetBatchSize overrides the UNWIND batch size used by upserts.
func (s *Store) SetBatchSize(size int) {
	if size > 0 {
		s.batchSize = size
	}
}

// Close closes the driver connection.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
}

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
}

// EnsureSchema creates the unique-id constraint for entity nodes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE", nil)
		return nil, err
	})
	return err
}

// NodeCount returns the number of entity nodes in the store.
func (s *Store) NodeCount(ctx context.Context) (int64, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (n:Entity) RETURN count(n) AS count", nil)
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	return getInt64Value(record, "count"), nil
}

// UpsertNodes writes entity nodes in batches. MERGE on id keeps the
// operation idempotent: re-running leaves the store unchanged.
func (s *Store) UpsertNodes(ctx context.Context, nodes []Node) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	for i := 0; i < len(nodes); i += s.batchSize {
		end := i + s.batchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		rows := make([]map[string]any, 0, end-i)
		for _, node := range nodes[i:end] {
			rows = append(rows, map[string]any{
				"id":          node.ID,
				"type":        node.Type,
				"name":        node.Label,
				"description": attributeValue(node.Attributes, "description"),
				"attrs":       encodeAttributes(node.Attributes),
			})
		}
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, upsertNodesCypher, map[string]any{"rows": rows})
			return nil, err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UpsertEdges writes relations in batches, grouped by relationship type
// since Cypher cannot parameterize the type itself.
func (s *Store) UpsertEdges(ctx context.Context, edges []Edge) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	edgesByType := make(map[string][]map[string]any)
	for _, edge := range edges {
		relType := sanitizeRelType(edge.Type)
		edgesByType[relType] = append(edgesByType[relType], map[string]any{
			"from":  edge.From,
			"to":    edge.To,
			"type":  edge.Type,
			"attrs": encodeAttributes(edge.Attributes),
		})
	}

	for relType, rows := range edgesByType {
		for i := 0; i < len(rows); i += s.batchSize {
			end := i + s.batchSize
			if end > len(rows) {
				end = len(rows)
			}
			chunk := rows[i:end]
			_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
				_, err := tx.Run(ctx, upsertEdgesCypher(relType), map[string]any{"rows": chunk})
				return nil, err
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Upserts are MERGE-only so repeated loads leave the store unchanged.
const upsertNodesCypher = `
UNWIND $rows AS row
MERGE (n:Entity {id: row.id})
SET n.type = row.type,
    n.name = row.name,
    n.description = row.description,
    n.attrs = row.attrs`

func upsertEdgesCypher(relType string) string {
	return fmt.Sprintf(`
UNWIND $rows AS row
MATCH (from:Entity {id: row.from})
MATCH (to:Entity {id: row.to})
MERGE (from)-[r:%s]->(to)
SET r.type = row.type,
    r.attrs = row.attrs`, relType)
}

func sanitizeRelType(value string) string {
	clean := strings.TrimSpace(strings.ToUpper(value))
	clean = strings.ReplaceAll(clean, " ", "_")
	clean = strings.ReplaceAll(clean, "-", "_")
	if clean == "" {
		return "RELATED_TO"
	}
	for _, r := range clean {
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '_' {
			continue
		}
		return "RELATED_TO"
	}
	return clean
}

// quoteRelType makes a store-reported relationship type safe to splice
// into a query without rewriting it: plain identifiers pass through,
// anything else is backtick-escaped. Rewriting would silently sample
// zero matches for types another tool loaded.
func quoteRelType(value string) string {
	if isRelTypeIdentifier(value) {
		return value
	}
	return "`" + strings.ReplaceAll(value, "`", "``") + "`"
}

func isRelTypeIdentifier(value string) bool {
	if value == "" {
		return false
	}
	for i, r := range value {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func encodeAttributes(attrs map[string]interface{}) string {
	if len(attrs) == 0 {
		return ""
	}
	payload, err := json.Marshal(attrs)
	if err != nil {
		return ""
	}
	return string(payload)
}

func attributeValue(attrs map[string]interface{}, key string) string {
	if attrs == nil {
		return ""
	}
	value, ok := attrs[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(value)
	}
}
