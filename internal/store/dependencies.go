package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
)

// Dependencies returns all dependencies in insertion order.
func (t *Tx) Dependencies(ctx context.Context) ([]domain.Dependency, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT predecessor_id, successor_id, dependency_type, lead_lag_days FROM dependencies ORDER BY rowid`)
	if err != nil {
		return nil, storeFailure("query dependencies", err)
	}
	defer rows.Close()

	deps := []domain.Dependency{}
	for rows.Next() {
		var d domain.Dependency
		var typ string
		if err := rows.Scan(&d.PredecessorID, &d.SuccessorID, &typ, &d.LeadLagDays); err != nil {
			return nil, storeFailure("scan dependency", err)
		}
		d.DependencyType = domain.DependencyType(typ)
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("iterate dependencies", err)
	}
	return deps, nil
}

// Dependency returns the edge predecessor -> successor or a NOT_FOUND error.
func (t *Tx) Dependency(ctx context.Context, predecessor, successor string) (*domain.Dependency, error) {
	d := domain.Dependency{PredecessorID: predecessor, SuccessorID: successor}
	var typ string
	err := t.tx.QueryRowContext(ctx,
		`SELECT dependency_type, lead_lag_days FROM dependencies WHERE predecessor_id = ? AND successor_id = ?`,
		predecessor, successor,
	).Scan(&typ, &d.LeadLagDays)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("dependency", predecessor+" -> "+successor)
	}
	if err != nil {
		return nil, storeFailure(fmt.Sprintf("get dependency %s -> %s", predecessor, successor), err)
	}
	d.DependencyType = domain.DependencyType(typ)
	return &d, nil
}

// InsertDependency stores a new edge. Callers validate it first.
func (t *Tx) InsertDependency(ctx context.Context, d domain.Dependency) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO dependencies (predecessor_id, successor_id, dependency_type, lead_lag_days) VALUES (?, ?, ?, ?)`,
		d.PredecessorID, d.SuccessorID, string(d.DependencyType), d.LeadLagDays,
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("insert dependency %s", d), err)
	}
	return nil
}

// UpdateDependency changes the type and lead/lag of an existing edge.
func (t *Tx) UpdateDependency(ctx context.Context, d domain.Dependency) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE dependencies SET dependency_type = ?, lead_lag_days = ? WHERE predecessor_id = ? AND successor_id = ?`,
		string(d.DependencyType), d.LeadLagDays, d.PredecessorID, d.SuccessorID,
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("update dependency %s", d), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("dependency", d.PredecessorID+" -> "+d.SuccessorID)
	}
	return nil
}

// DeleteDependency removes an edge or returns a NOT_FOUND error.
func (t *Tx) DeleteDependency(ctx context.Context, predecessor, successor string) error {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM dependencies WHERE predecessor_id = ? AND successor_id = ?`,
		predecessor, successor,
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("delete dependency %s -> %s", predecessor, successor), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("dependency", predecessor+" -> "+successor)
	}
	return nil
}
