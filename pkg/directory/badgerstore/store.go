// Package badgerstore provides a persistent implementation of the
// directory Store backed by BadgerDB.
package badgerstore

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/mlohr/groupdrive/internal/logger"
	"github.com/mlohr/groupdrive/pkg/directory"
)

// maxConflictRetries bounds how often an Update is re-run when badger
// detects a transaction conflict before giving up with ErrStorage.
const maxConflictRetries = 5

// Config configures the badger store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory runs badger without disk persistence. Used by tests.
	InMemory bool
}

// Store implements directory.Store on BadgerDB.
//
// Every Update maps to one badger read-write transaction, which provides
// the all-or-nothing guarantee the service layer requires: either every
// row change of a service operation commits, or none does. Badger's
// optimistic concurrency detects write conflicts between racing
// transactions; conflicted updates are re-run a bounded number of times.
type Store struct {
	db *badger.DB
}

// Open opens (and if necessary creates) the database.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &directory.StoreError{
			Code:    directory.ErrStorage,
			Message: "failed to open badger database: " + err.Error(),
			Path:    cfg.Path,
		}
	}
	logger.Info("opened badger directory store at %q", cfg.Path)
	return &Store{db: db}, nil
}

// View implements directory.Store.
func (s *Store) View(ctx context.Context, fn func(tx directory.ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&transaction{txn: txn})
	})
}

// Update implements directory.Store. Conflicting transactions are
// retried; domain errors from the callback abort immediately and roll the
// transaction back.
func (s *Store) Update(ctx context.Context, fn func(tx directory.Tx) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(&transaction{txn: txn})
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, badger.ErrConflict) {
			if attempt < maxConflictRetries {
				logger.Debug("badger transaction conflict, retrying (attempt %d)", attempt+1)
				continue
			}
			return &directory.StoreError{
				Code:    directory.ErrStorage,
				Message: "transaction conflict persisted across retries",
			}
		}
		return err
	}
}

// Close implements directory.Store.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &directory.StoreError{
			Code:    directory.ErrStorage,
			Message: "failed to close badger database: " + err.Error(),
		}
	}
	return nil
}
