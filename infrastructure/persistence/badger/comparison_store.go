// Package badger stores comparisons in an embedded BadgerDB key space.
//
// Keys:
//
//	cmp/<id>  zstd-compressed record envelope
//	sum/<id>  zstd-compressed listing summary
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"graphdiff/application/ports"
	"graphdiff/domain/comparison"
	"graphdiff/infrastructure/persistence/abstractions"
	"graphdiff/infrastructure/persistence/schema"
	"graphdiff/pkg/canonical"
	apperrors "graphdiff/pkg/errors"
)

const (
	recordPrefix  = "cmp/"
	summaryPrefix = "sum/"
)

// Config configures the database
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	GCInterval time.Duration
	Logger     *zap.Logger
}

// InMemoryConfig returns a configuration for tests
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// ComparisonStore persists comparisons in BadgerDB
type ComparisonStore struct {
	db     *badger.DB
	codec  *schema.Codec
	logger *zap.Logger
	stop   chan struct{}
	done   chan struct{}
}

// NewComparisonStore opens the database described by cfg
func NewComparisonStore(cfg Config) (*ComparisonStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, apperrors.NewStoreError("init", errors.New("path is required for persistent database"))
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, apperrors.NewStoreError("init", fmt.Errorf("create database directory %s: %w", cfg.Path, err))
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.WithLogger(&badgerLogger{logger: logger.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.NewStoreError("init", fmt.Errorf("open badger database: %w", err))
	}

	s := &ComparisonStore{
		db:     db,
		codec:  schema.NewCodec(true),
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.runGC(cfg.GCInterval)
	} else {
		close(s.done)
	}
	return s, nil
}

// Put stores a result and its summary in one transaction
func (s *ComparisonStore) Put(ctx context.Context, id string, result *comparison.Result) error {
	record, err := s.codec.Encode(result)
	if err != nil {
		return apperrors.NewStoreError("put", err)
	}

	summary := result.Summarize()
	summary.ComparisonID = id
	summaryBlob, err := canonical.EncodeRecord(summary)
	if err != nil {
		return apperrors.NewStoreError("put", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(recordPrefix+id), record); err != nil {
			return err
		}
		return txn.Set([]byte(summaryPrefix+id), summaryBlob)
	})
	if err != nil {
		return apperrors.NewStoreError("put", err)
	}
	return nil
}

// Get retrieves a result by id
func (s *ComparisonStore) Get(ctx context.Context, id string) (*comparison.Result, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordPrefix + id))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", err)
	}

	result, err := s.codec.Decode(blob)
	if err != nil {
		return nil, apperrors.NewStoreError("get", err)
	}
	return result, nil
}

// List scans the summary key space
func (s *ComparisonStore) List(ctx context.Context, opts ports.ListOptions) ([]comparison.Summary, int, error) {
	var items []comparison.Summary

	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(summaryPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				data, err := canonical.DecodeRecord(val)
				if err != nil {
					return err
				}
				var summary comparison.Summary
				if err := json.Unmarshal(data, &summary); err != nil {
					return err
				}
				items = append(items, summary)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, apperrors.NewStoreError("list", err)
	}

	page, total := abstractions.Page(items, opts)
	return page, total, nil
}

// Delete removes a result and its summary
func (s *ComparisonStore) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(recordPrefix + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(recordPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(summaryPrefix + id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperrors.NewNotFoundError("comparison").WithDetail("comparisonId", id)
	}
	if err != nil {
		return apperrors.NewStoreError("delete", err)
	}
	return nil
}

// Backend implements ports.ComparisonStore
func (s *ComparisonStore) Backend() string {
	return "badger"
}

// Close stops value-log GC and closes the database
func (s *ComparisonStore) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return s.db.Close()
}

func (s *ComparisonStore) runGC(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("Badger value log GC failed", zap.Error(err))
			}
		}
	}
}
