package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
)

const workItemColumns = `id, title, duration_days, start_date, end_date, start_after, start_before, status`

// selected on reads only; SetScheduledDates is their one writer
const scheduleColumns = `scheduled_start, scheduled_end`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (domain.WorkItem, error) {
	var (
		w        domain.WorkItem
		duration sql.NullInt64
		status   string
	)
	var start, end, startAfter, startBefore, scheduledStart, scheduledEnd sql.NullString
	if err := row.Scan(&w.ID, &w.Title, &duration, &start, &end, &startAfter, &startBefore, &status,
		&scheduledStart, &scheduledEnd); err != nil {
		return w, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		w.DurationDays = &d
	}
	w.Status = domain.Status(status)

	var err error
	for _, f := range []struct {
		dst **domain.Date
		src sql.NullString
	}{
		{&w.StartDate, start},
		{&w.EndDate, end},
		{&w.StartAfter, startAfter},
		{&w.StartBefore, startBefore},
		{&w.ScheduledStart, scheduledStart},
		{&w.ScheduledEnd, scheduledEnd},
	} {
		if *f.dst, err = scanDate(f.src); err != nil {
			return w, fmt.Errorf("work item %s: %w", w.ID, err)
		}
	}
	return w, nil
}

// WorkItems returns all work items in insertion order.
func (t *Tx) WorkItems(ctx context.Context) ([]domain.WorkItem, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+workItemColumns+`, `+scheduleColumns+` FROM work_items ORDER BY rowid`)
	if err != nil {
		return nil, storeFailure("query work items", err)
	}
	defer rows.Close()

	items := []domain.WorkItem{}
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, storeFailure("scan work item", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("iterate work items", err)
	}
	return items, nil
}

// WorkItem returns one work item or a NOT_FOUND error.
func (t *Tx) WorkItem(ctx context.Context, id string) (*domain.WorkItem, error) {
	w, err := scanWorkItem(t.tx.QueryRowContext(ctx, `SELECT `+workItemColumns+`, `+scheduleColumns+` FROM work_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("work item", id)
	}
	if err != nil {
		return nil, storeFailure(fmt.Sprintf("get work item %s", id), err)
	}
	return &w, nil
}

// CreateWorkItem inserts a work item, generating an id when none is set.
func (t *Tx) CreateWorkItem(ctx context.Context, w *domain.WorkItem) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	if w.Status == "" {
		w.Status = domain.StatusNotStarted
	}
	if err := w.Validate(); err != nil {
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO work_items (`+workItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		workItemArgs(w)...,
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("insert work item %s", w.ID), err)
	}
	return nil
}

// UpdateWorkItem overwrites every field of an existing work item.
func (t *Tx) UpdateWorkItem(ctx context.Context, w *domain.WorkItem) error {
	if err := w.Validate(); err != nil {
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	args := workItemArgs(w)
	// id moves from first to last for the WHERE clause
	args = append(args[1:], args[0])
	res, err := t.tx.ExecContext(ctx,
		`UPDATE work_items SET title = ?, duration_days = ?, start_date = ?, end_date = ?,
		     start_after = ?, start_before = ?, status = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("update work item %s", w.ID), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("work item", w.ID)
	}
	return nil
}

// UpsertWorkItem inserts or replaces a work item by id.
func (t *Tx) UpsertWorkItem(ctx context.Context, w *domain.WorkItem) error {
	if w.Status == "" {
		w.Status = domain.StatusNotStarted
	}
	if err := w.Validate(); err != nil {
		return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("work item %s: %v", w.ID, err), err)
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO work_items (`+workItemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title, duration_days = excluded.duration_days,
		     start_date = excluded.start_date, end_date = excluded.end_date,
		     start_after = excluded.start_after, start_before = excluded.start_before,
		     status = excluded.status, updated_at = datetime('now')`,
		workItemArgs(w)...,
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("upsert work item %s", w.ID), err)
	}
	return nil
}

// SetScheduledDates records the dates the last reschedule computed for a
// work item. The user's start and end dates are left alone.
func (t *Tx) SetScheduledDates(ctx context.Context, id string, start, end domain.Date) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE work_items SET scheduled_start = ?, scheduled_end = ?, updated_at = datetime('now') WHERE id = ?`,
		start.String(), end.String(), id,
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("set scheduled dates of %s", id), err)
	}
	return nil
}

func workItemArgs(w *domain.WorkItem) []any {
	var duration any
	if w.DurationDays != nil {
		duration = *w.DurationDays
	}
	return []any{
		w.ID, w.Title, duration,
		dateArg(w.StartDate), dateArg(w.EndDate), dateArg(w.StartAfter), dateArg(w.StartBefore),
		string(w.Status),
	}
}
