// Package neo4j imports a read-only snapshot of a Neo4j graph so it can be
// compared, merged or tracked like any other snapshot.
package neo4j

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"graphdiff/application/ports"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/core/entities"
	"graphdiff/domain/core/valueobjects"
	"graphdiff/pkg/errors"
)

// DefaultLimit caps imports when the query sets no limit
const DefaultLimit = 100000

const nodeQuery = `
	MATCH (n)
	WHERE size($labels) = 0 OR any(l IN labels(n) WHERE l IN $labels)
	RETURN coalesce(toString(n.id), elementId(n)) AS id, labels(n) AS labels, properties(n) AS props
	ORDER BY id
	LIMIT $limit
`

const relationshipQuery = `
	MATCH (a)-[r]->(b)
	WHERE size($labels) = 0 OR (any(l IN labels(a) WHERE l IN $labels) AND any(l IN labels(b) WHERE l IN $labels))
	RETURN coalesce(toString(a.id), elementId(a)) AS source,
	       coalesce(toString(b.id), elementId(b)) AS target,
	       type(r) AS type, properties(r) AS props
	ORDER BY source, target, type
	LIMIT $limit
`

// Config holds connection settings
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// SnapshotSource reads nodes and relationships from Neo4j
type SnapshotSource struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewSnapshotSource connects to Neo4j and verifies connectivity
func NewSnapshotSource(ctx context.Context, cfg Config, logger *zap.Logger) (*SnapshotSource, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.NewUnavailableError("neo4j").WithCause(err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, errors.NewUnavailableError("neo4j").WithCause(err)
	}

	return &SnapshotSource{driver: driver, database: cfg.Database, logger: logger}, nil
}

// Close closes the driver
func (s *SnapshotSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// LoadSnapshot implements ports.SnapshotSource
func (s *SnapshotSource) LoadSnapshot(ctx context.Context, query ports.SnapshotQuery) (aggregates.Snapshot, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	labels := make([]interface{}, len(query.Labels))
	for i, l := range query.Labels {
		labels[i] = l
	}
	params := map[string]interface{}{"labels": labels, "limit": int64(limit)}

	snapshot, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodes, err := collect(ctx, tx, nodeQuery, params, func(record *neo4j.Record) entities.Node {
			return NodeFromRecord(stringValue(record, "id"), listValue(record, "labels"), mapValue(record, "props"))
		})
		if err != nil {
			return nil, fmt.Errorf("read nodes: %w", err)
		}

		links, err := collect(ctx, tx, relationshipQuery, params, func(record *neo4j.Record) entities.Link {
			return LinkFromRecord(stringValue(record, "source"), stringValue(record, "target"),
				stringValue(record, "type"), mapValue(record, "props"))
		})
		if err != nil {
			return nil, fmt.Errorf("read relationships: %w", err)
		}

		return aggregates.NewSnapshot(nodes, links), nil
	})
	if err != nil {
		return aggregates.Snapshot{}, errors.NewUnavailableError("neo4j").WithCause(err)
	}

	result := snapshot.(aggregates.Snapshot)
	result.Timestamp = time.Now().UTC().Format(time.RFC3339)

	s.logger.Info("Imported snapshot from Neo4j",
		zap.Int("nodes", result.NodeCount()),
		zap.Int("links", result.LinkCount()),
		zap.Strings("labels", query.Labels),
	)
	return result, nil
}

func collect[T any](ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]interface{}, convert func(*neo4j.Record) T) ([]T, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	var out []T
	for result.Next(ctx) {
		out = append(out, convert(result.Record()))
	}
	return out, result.Err()
}

// NodeFromRecord builds a node from a Neo4j row. The first label (sorted)
// becomes the node label; a string "name" property is lifted to the node.
func NodeFromRecord(id string, labels []interface{}, props map[string]interface{}) entities.Node {
	content := map[string]valueobjects.Value{
		"id":    valueobjects.String(id),
		"props": propertyMap(props),
	}

	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if s, ok := l.(string); ok {
			names = append(names, s)
		}
	}
	sort.Strings(names)
	if len(names) > 0 {
		content["label"] = valueobjects.String(names[0])
	}

	if name, ok := props["name"].(string); ok {
		content["name"] = valueobjects.String(name)
	}

	return entities.NewNode(valueobjects.Map(content))
}

// LinkFromRecord builds a link from a Neo4j relationship row
func LinkFromRecord(source, target, relType string, props map[string]interface{}) entities.Link {
	return entities.NewLink(valueobjects.Map(map[string]valueobjects.Value{
		"source": valueobjects.String(source),
		"target": valueobjects.String(target),
		"type":   valueobjects.String(relType),
		"props":  propertyMap(props),
	}))
}

func propertyMap(props map[string]interface{}) valueobjects.Value {
	out := make(map[string]valueobjects.Value, len(props))
	for k, v := range props {
		out[k] = propertyValue(v)
	}
	return valueobjects.Map(out)
}

// propertyValue converts driver values; temporal and spatial types are
// rendered as strings.
func propertyValue(v interface{}) valueobjects.Value {
	switch val := v.(type) {
	case time.Time:
		return valueobjects.String(val.UTC().Format(time.RFC3339Nano))
	case []interface{}:
		items := make([]valueobjects.Value, len(val))
		for i, item := range val {
			items[i] = propertyValue(item)
		}
		return valueobjects.Sequence(items...)
	case map[string]interface{}:
		return propertyMap(val)
	case fmt.Stringer:
		return valueobjects.String(val.String())
	}
	return valueobjects.FromAny(v)
}

func stringValue(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return fmt.Sprint(val)
}

func listValue(record *neo4j.Record, key string) []interface{} {
	val, _ := record.Get(key)
	list, _ := val.([]interface{})
	return list
}

func mapValue(record *neo4j.Record, key string) map[string]interface{} {
	val, _ := record.Get(key)
	m, _ := val.(map[string]interface{})
	return m
}
