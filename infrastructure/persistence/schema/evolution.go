// Package schema versions stored comparison records and upgrades older
// layouts on read.
package schema

import (
	"encoding/json"
	"fmt"

	"graphdiff/domain/comparison"
)

// CurrentVersion is the layout written by this service
const CurrentVersion = 2

// Document is a record decoded one level deep. Nested values stay raw so
// migrations never touch user graph data.
type Document map[string]json.RawMessage

// MigrationFunc upgrades a document by one version
type MigrationFunc func(doc Document) (Document, error)

// Migration represents a record migration
type Migration struct {
	FromVersion int
	ToVersion   int
	Description string
	Up          MigrationFunc
}

// SchemaEvolution manages record schema evolution
type SchemaEvolution struct {
	migrations []Migration
}

// NewSchemaEvolution creates a schema evolution manager with every known
// migration registered
func NewSchemaEvolution() *SchemaEvolution {
	s := &SchemaEvolution{}
	// Registration of built-in migrations cannot conflict
	_ = s.RegisterMigration(Migration{
		FromVersion: 1,
		ToVersion:   2,
		Description: "rename snake_case comparison fields to camelCase",
		Up:          migrateSnakeCase,
	})
	return s
}

// RegisterMigration registers a new migration
func (s *SchemaEvolution) RegisterMigration(migration Migration) error {
	if migration.FromVersion >= migration.ToVersion {
		return fmt.Errorf("invalid migration: from_version must be less than to_version")
	}

	for _, existing := range s.migrations {
		if existing.FromVersion == migration.FromVersion &&
			existing.ToVersion == migration.ToVersion {
			return fmt.Errorf("migration from %d to %d already exists",
				migration.FromVersion, migration.ToVersion)
		}
	}

	s.migrations = append(s.migrations, migration)
	return nil
}

// Upgrade applies forward migrations until the document reaches CurrentVersion
func (s *SchemaEvolution) Upgrade(doc Document, version int) (Document, error) {
	for version < CurrentVersion {
		migration := s.findMigration(version, version+1)
		if migration == nil {
			return nil, fmt.Errorf("no migration found from version %d to %d", version, version+1)
		}

		var err error
		doc, err = migration.Up(doc)
		if err != nil {
			return nil, fmt.Errorf("migration %d->%d failed: %w",
				migration.FromVersion, migration.ToVersion, err)
		}
		version = migration.ToVersion
	}

	if version > CurrentVersion {
		return nil, fmt.Errorf("record schema version %d is newer than supported version %d", version, CurrentVersion)
	}
	return doc, nil
}

func (s *SchemaEvolution) findMigration(from, to int) *Migration {
	for i := range s.migrations {
		if s.migrations[i].FromVersion == from && s.migrations[i].ToVersion == to {
			return &s.migrations[i]
		}
	}
	return nil
}

type envelope struct {
	SchemaVersion int             `json:"_schema_version"`
	Data          json.RawMessage `json:"data"`
}

// MarshalWithSchema wraps a result in the current schema envelope
func MarshalWithSchema(result *comparison.Result) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{SchemaVersion: CurrentVersion, Data: data})
}

// UnmarshalWithSchema decodes a record of any known layout. Records without
// an envelope are version 1.
func (s *SchemaEvolution) UnmarshalWithSchema(raw []byte) (*comparison.Result, int, error) {
	var top Document
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, 0, fmt.Errorf("decode record: %w", err)
	}

	version := 1
	doc := top
	if _, ok := top["_schema_version"]; ok {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, 0, fmt.Errorf("decode record envelope: %w", err)
		}
		version = env.SchemaVersion
		doc = nil
		if err := json.Unmarshal(env.Data, &doc); err != nil {
			return nil, 0, fmt.Errorf("decode record data: %w", err)
		}
	}

	doc, err := s.Upgrade(doc, version)
	if err != nil {
		return nil, version, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, version, err
	}

	var result comparison.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, version, fmt.Errorf("decode comparison: %w", err)
	}
	return &result, version, nil
}

var (
	topLevelRenames = map[string]string{
		"comparison_id": "comparisonId",
		"created_at":    "createdAt",
	}
	versionRenames = map[string]string{
		"version_id": "versionId",
		"graph_data": "graphData",
	}
	differenceRenames = map[string]string{
		"similarity_score": "similarityScore",
		"total_changes":    "totalChanges",
	}
	diffSetRenames = map[string]string{
		"count_added":     "countAdded",
		"count_removed":   "countRemoved",
		"count_modified":  "countModified",
		"count_unchanged": "countUnchanged",
	}
)

// migrateSnakeCase rewrites the envelope keys of records written with
// snake_case field names. Keys inside graph data are left alone.
func migrateSnakeCase(doc Document) (Document, error) {
	rename(doc, topLevelRenames)

	for _, key := range []string{"version1", "version2"} {
		if err := rewrite(doc, key, func(d Document) error {
			rename(d, versionRenames)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	err := rewrite(doc, "differences", func(diff Document) error {
		rename(diff, differenceRenames)
		for _, key := range []string{"nodes", "links"} {
			if err := rewrite(diff, key, func(set Document) error {
				rename(set, diffSetRenames)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func rename(doc Document, renames map[string]string) {
	for from, to := range renames {
		value, ok := doc[from]
		if !ok {
			continue
		}
		delete(doc, from)
		if _, exists := doc[to]; !exists {
			doc[to] = value
		}
	}
}

// rewrite decodes doc[key] as an object, applies fn, and stores it back.
// Missing or null entries are skipped.
func rewrite(doc Document, key string, fn func(Document) error) error {
	raw, ok := doc[key]
	if !ok || string(raw) == "null" {
		return nil
	}

	var nested Document
	if err := json.Unmarshal(raw, &nested); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	if err := fn(nested); err != nil {
		return err
	}

	encoded, err := json.Marshal(nested)
	if err != nil {
		return err
	}
	doc[key] = encoded
	return nil
}
