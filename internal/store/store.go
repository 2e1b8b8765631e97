package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
)

// Store is the SQLite-backed project database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the project database at path and applies
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a transaction over the project database. Every read and write a
// service makes while validating a mutation goes through one Tx.
type Tx struct {
	tx *sql.Tx
}

// RunInTx runs fn in a write transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so a rejected mutation writes nothing.
func (s *Store) RunInTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeFailure("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeFailure("commit", err)
	}
	return nil
}

// Snapshot reads every work item, dependency and milestone in one read
// transaction.
func (s *Store) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, storeFailure("begin read tx", err)
	}
	defer tx.Rollback()

	return (&Tx{tx: tx}).Snapshot(ctx)
}

// Snapshot reads every work item, dependency and milestone.
func (t *Tx) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	items, err := t.WorkItems(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := t.Dependencies(ctx)
	if err != nil {
		return nil, err
	}
	milestones, err := t.Milestones(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{WorkItems: items, Dependencies: deps, Milestones: milestones}, nil
}

// Import writes a snapshot in one transaction. Existing rows with the same
// keys are replaced. Structural checks are skipped; the scheduler's
// full-graph check reports any cycle the import introduces.
func (s *Store) Import(ctx context.Context, snap *domain.Snapshot) error {
	return s.RunInTx(ctx, func(tx *Tx) error {
		for i := range snap.WorkItems {
			if err := tx.UpsertWorkItem(ctx, &snap.WorkItems[i]); err != nil {
				return err
			}
		}
		for _, d := range snap.Dependencies {
			if _, err := tx.tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO dependencies (predecessor_id, successor_id, dependency_type, lead_lag_days) VALUES (?, ?, ?, ?)`,
				d.PredecessorID, d.SuccessorID, string(d.DependencyType), d.LeadLagDays,
			); err != nil {
				return storeFailure(fmt.Sprintf("import dependency %s", d), err)
			}
		}
		for i := range snap.Milestones {
			m := &snap.Milestones[i]
			if err := tx.UpsertMilestone(ctx, m); err != nil {
				return err
			}
			if err := tx.replaceLinks(ctx, m.ID, m.Contributors, RoleContributor); err != nil {
				return err
			}
			if err := tx.replaceLinks(ctx, m.ID, m.Dependents, RoleDependent); err != nil {
				return err
			}
		}
		return nil
	})
}

func storeFailure(op string, err error) error {
	return appErrors.New(appErrors.CodeStoreFailure, fmt.Sprintf("%s: %v", op, err), err)
}

func notFound(kind, id string) error {
	return appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("%s %s not found", kind, id), nil).
		WithDetails("id", id)
}

func dateArg(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func scanDate(ns sql.NullString) (*domain.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
