// Package filesystem stores each comparison as <id>.json in a directory.
// The layout is compatible with records written by earlier versions of the
// service, which are upgraded on read.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/infrastructure/persistence/abstractions"
	"graphdiff/infrastructure/persistence/schema"
	"graphdiff/pkg/errors"
)

const extension = ".json"

// ComparisonStore persists comparisons as JSON files
type ComparisonStore struct {
	dir    string
	codec  *schema.Codec
	logger *zap.Logger
}

// NewComparisonStore creates the directory if needed
func NewComparisonStore(dir string, logger *zap.Logger) (*ComparisonStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStoreError("init", err).WithDetail("dir", dir)
	}
	return &ComparisonStore{
		dir:    dir,
		codec:  schema.NewCodec(false),
		logger: logger,
	}, nil
}

func (s *ComparisonStore) path(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return "", errors.NewValidationError("invalid comparison id").WithDetail("comparisonId", id)
	}
	return filepath.Join(s.dir, id+extension), nil
}

// Put writes the record through a temporary file so readers never observe
// a partial document
func (s *ComparisonStore) Put(ctx context.Context, id string, result *comparison.Result) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.NewStoreError("put", err)
	}

	data, err := s.codec.Encode(result)
	if err != nil {
		return errors.NewStoreError("put", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+id+"-*.tmp")
	if err != nil {
		return errors.NewStoreError("put", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewStoreError("put", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewStoreError("put", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewStoreError("put", err)
	}
	return nil
}

// Get reads and decodes one record
func (s *ComparisonStore) Get(ctx context.Context, id string) (*comparison.Result, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
		}
		return nil, errors.NewStoreError("get", err)
	}

	result, err := s.codec.Decode(data)
	if err != nil {
		return nil, errors.NewStoreError("get", fmt.Errorf("%s: %w", filepath.Base(path), err))
	}
	return result, nil
}

// List decodes every record in the directory. Unreadable files are skipped
// and logged.
func (s *ComparisonStore) List(ctx context.Context, opts ports.ListOptions) ([]comparison.Summary, int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, 0, errors.NewStoreError("list", err)
	}

	items := make([]comparison.Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != extension {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, errors.NewStoreError("list", err)
		}

		id := strings.TrimSuffix(name, extension)
		result, err := s.Get(ctx, id)
		if err != nil {
			s.logger.Warn("Skipping unreadable comparison record",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}

		summary := result.Summarize()
		summary.ComparisonID = id
		items = append(items, summary)
	}

	page, total := abstractions.Page(items, opts)
	return page, total, nil
}

// Delete removes one record
func (s *ComparisonStore) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
		}
		return errors.NewStoreError("delete", err)
	}
	return nil
}

// Backend implements ports.ComparisonStore
func (s *ComparisonStore) Backend() string {
	return "filesystem"
}
