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

// Role is the side of a milestone a work item is linked on.
type Role string

const (
	RoleContributor Role = "contributor"
	RoleDependent   Role = "dependent"
)

// Milestones returns all milestones with their links, in insertion order.
func (t *Tx) Milestones(ctx context.Context) ([]domain.Milestone, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, title, target_date, is_completed, completed_at FROM milestones ORDER BY rowid`)
	if err != nil {
		return nil, storeFailure("query milestones", err)
	}
	milestones := []domain.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			rows.Close()
			return nil, storeFailure("scan milestone", err)
		}
		milestones = append(milestones, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeFailure("iterate milestones", err)
	}

	links, err := t.links(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range milestones {
		attachLinks(&milestones[i], links[milestones[i].ID])
	}
	return milestones, nil
}

// Milestone returns one milestone with its links or a NOT_FOUND error.
func (t *Tx) Milestone(ctx context.Context, id string) (*domain.Milestone, error) {
	m, err := scanMilestone(t.tx.QueryRowContext(ctx,
		`SELECT id, title, target_date, is_completed, completed_at FROM milestones WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("milestone", id)
	}
	if err != nil {
		return nil, storeFailure(fmt.Sprintf("get milestone %s", id), err)
	}
	links, err := t.links(ctx, id)
	if err != nil {
		return nil, err
	}
	attachLinks(&m, links[id])
	return &m, nil
}

// CreateMilestone inserts a milestone, generating an id when none is set.
// Links are not written; use AddMilestoneLink.
func (t *Tx) CreateMilestone(ctx context.Context, m *domain.Milestone) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if err := m.Validate(); err != nil {
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO milestones (id, title, target_date, is_completed, completed_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.TargetDate.String(), m.IsCompleted, dateArg(m.CompletedAt),
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("insert milestone %s", m.ID), err)
	}
	return nil
}

// UpsertMilestone inserts or replaces a milestone's own fields by id.
func (t *Tx) UpsertMilestone(ctx context.Context, m *domain.Milestone) error {
	if err := m.Validate(); err != nil {
		return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("milestone %s: %v", m.ID, err), err)
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO milestones (id, title, target_date, is_completed, completed_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title, target_date = excluded.target_date,
		     is_completed = excluded.is_completed, completed_at = excluded.completed_at`,
		m.ID, m.Title, m.TargetDate.String(), m.IsCompleted, dateArg(m.CompletedAt),
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("upsert milestone %s", m.ID), err)
	}
	return nil
}

// CompleteMilestone marks a milestone reached on the given day.
func (t *Tx) CompleteMilestone(ctx context.Context, id string, at domain.Date) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE milestones SET is_completed = 1, completed_at = ? WHERE id = ?`, at.String(), id)
	if err != nil {
		return storeFailure(fmt.Sprintf("complete milestone %s", id), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("milestone", id)
	}
	return nil
}

// MilestoneRole returns the role a work item holds on a milestone, if any.
func (t *Tx) MilestoneRole(ctx context.Context, milestoneID, workItemID string) (Role, bool, error) {
	var role string
	err := t.tx.QueryRowContext(ctx,
		`SELECT role FROM milestone_links WHERE milestone_id = ? AND work_item_id = ?`,
		milestoneID, workItemID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeFailure("get milestone link", err)
	}
	return Role(role), true, nil
}

// AddMilestoneLink links a work item to a milestone.
func (t *Tx) AddMilestoneLink(ctx context.Context, milestoneID, workItemID string, role Role) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO milestone_links (milestone_id, work_item_id, role) VALUES (?, ?, ?)`,
		milestoneID, workItemID, string(role),
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("link %s to milestone %s", workItemID, milestoneID), err)
	}
	return nil
}

// RemoveMilestoneLink removes a link with the given role.
func (t *Tx) RemoveMilestoneLink(ctx context.Context, milestoneID, workItemID string, role Role) error {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM milestone_links WHERE milestone_id = ? AND work_item_id = ? AND role = ?`,
		milestoneID, workItemID, string(role),
	)
	if err != nil {
		return storeFailure(fmt.Sprintf("unlink %s from milestone %s", workItemID, milestoneID), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(string(role)+" link", milestoneID+"/"+workItemID)
	}
	return nil
}

func (t *Tx) replaceLinks(ctx context.Context, milestoneID string, workItemIDs []string, role Role) error {
	for _, id := range workItemIDs {
		_, err := t.tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO milestone_links (milestone_id, work_item_id, role) VALUES (?, ?, ?)`,
			milestoneID, id, string(role),
		)
		if err != nil {
			return storeFailure(fmt.Sprintf("import link %s to milestone %s", id, milestoneID), err)
		}
	}
	return nil
}

type link struct {
	workItemID string
	role       Role
}

// links returns milestone links grouped by milestone; an empty id means all.
func (t *Tx) links(ctx context.Context, milestoneID string) (map[string][]link, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT milestone_id, work_item_id, role FROM milestone_links
		 WHERE ? = '' OR milestone_id = ? ORDER BY rowid`,
		milestoneID, milestoneID,
	)
	if err != nil {
		return nil, storeFailure("query milestone links", err)
	}
	defer rows.Close()

	out := make(map[string][]link)
	for rows.Next() {
		var mid, wid, role string
		if err := rows.Scan(&mid, &wid, &role); err != nil {
			return nil, storeFailure("scan milestone link", err)
		}
		out[mid] = append(out[mid], link{workItemID: wid, role: Role(role)})
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("iterate milestone links", err)
	}
	return out, nil
}

func attachLinks(m *domain.Milestone, links []link) {
	for _, l := range links {
		switch l.role {
		case RoleContributor:
			m.Contributors = append(m.Contributors, l.workItemID)
		case RoleDependent:
			m.Dependents = append(m.Dependents, l.workItemID)
		}
	}
}

func scanMilestone(row rowScanner) (domain.Milestone, error) {
	var (
		m           domain.Milestone
		target      string
		completedAt sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Title, &target, &m.IsCompleted, &completedAt); err != nil {
		return m, err
	}
	var err error
	if m.TargetDate, err = domain.ParseDate(target); err != nil {
		return m, fmt.Errorf("milestone %s: %w", m.ID, err)
	}
	if m.CompletedAt, err = scanDate(completedAt); err != nil {
		return m, fmt.Errorf("milestone %s: %w", m.ID, err)
	}
	return m, nil
}
