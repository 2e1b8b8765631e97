package milestone

import (
	"context"
	"fmt"

	"github.com/steilerDev/cornerstone-sub004/internal/ctxlog"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
	"github.com/steilerDev/cornerstone-sub004/internal/store"
)

// Store is the transactional persistence the service needs.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx *store.Tx) error) error
}

// Rescheduler recomputes and stores the project schedule.
type Rescheduler interface {
	Reschedule(ctx context.Context) (int, error)
}

// Service manages milestones and their work item links.
type Service struct {
	store       Store
	rescheduler Rescheduler
}

// NewService returns a milestone service. The rescheduler runs after every
// successful link change; nil disables it.
func NewService(st Store, r Rescheduler) *Service {
	return &Service{store: st, rescheduler: r}
}

// Create stores a new milestone and its initial links.
func (s *Service) Create(ctx context.Context, m *domain.Milestone) error {
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		if err := tx.CreateMilestone(ctx, m); err != nil {
			return err
		}
		for _, id := range m.Contributors {
			if err := s.checkAndLink(ctx, tx, m.ID, id, store.RoleContributor); err != nil {
				return err
			}
		}
		for _, id := range m.Dependents {
			if err := s.checkAndLink(ctx, tx, m.ID, id, store.RoleDependent); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("milestone created", "id", m.ID, "title", m.Title, "target", m.TargetDate.String())
	return s.reschedule(ctx)
}

// List returns every milestone with its links.
func (s *Service) List(ctx context.Context) ([]domain.Milestone, error) {
	var out []domain.Milestone
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Milestones(ctx)
		return err
	})
	return out, err
}

// Get returns one milestone or a NOT_FOUND error.
func (s *Service) Get(ctx context.Context, id string) (*domain.Milestone, error) {
	var out *domain.Milestone
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Milestone(ctx, id)
		return err
	})
	return out, err
}

// Complete marks a milestone reached on the given day. Its gate is then
// pinned to that day.
func (s *Service) Complete(ctx context.Context, id string, at domain.Date) error {
	if err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		return tx.CompleteMilestone(ctx, id, at)
	}); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("milestone completed", "id", id, "at", at.String())
	return s.reschedule(ctx)
}

// LinkContributor records that a work item must finish before the milestone.
func (s *Service) LinkContributor(ctx context.Context, milestoneID, workItemID string) error {
	return s.link(ctx, milestoneID, workItemID, store.RoleContributor)
}

// UnlinkContributor removes a contributor link.
func (s *Service) UnlinkContributor(ctx context.Context, milestoneID, workItemID string) error {
	return s.unlink(ctx, milestoneID, workItemID, store.RoleContributor)
}

// AddDependent records that a work item may not start before the milestone.
func (s *Service) AddDependent(ctx context.Context, milestoneID, workItemID string) error {
	return s.link(ctx, milestoneID, workItemID, store.RoleDependent)
}

// RemoveDependent removes a dependent link.
func (s *Service) RemoveDependent(ctx context.Context, milestoneID, workItemID string) error {
	return s.unlink(ctx, milestoneID, workItemID, store.RoleDependent)
}

func (s *Service) link(ctx context.Context, milestoneID, workItemID string, role store.Role) error {
	log := ctxlog.FromContext(ctx)
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.Milestone(ctx, milestoneID); err != nil {
			return err
		}
		return s.checkAndLink(ctx, tx, milestoneID, workItemID, role)
	})
	if err != nil {
		log.Warn("milestone link rejected", "milestone", milestoneID, "workItem", workItemID,
			"role", role, "code", appErrors.CodeOf(err), "error", err)
		return err
	}
	log.Info("milestone linked", "milestone", milestoneID, "workItem", workItemID, "role", role)
	return s.reschedule(ctx)
}

// checkAndLink validates and writes one link inside tx. A work item holds at
// most one role per milestone.
func (s *Service) checkAndLink(ctx context.Context, tx *store.Tx, milestoneID, workItemID string, role store.Role) error {
	if _, err := tx.WorkItem(ctx, workItemID); err != nil {
		return err
	}
	existing, ok, err := tx.MilestoneRole(ctx, milestoneID, workItemID)
	if err != nil {
		return err
	}
	if ok && existing == role {
		return appErrors.New(appErrors.CodeDuplicateLink,
			fmt.Sprintf("work item %s is already a %s of milestone %s", workItemID, role, milestoneID), nil).
			WithDetails("milestoneId", milestoneID).
			WithDetails("workItemId", workItemID)
	}
	if ok {
		return appErrors.New(appErrors.CodeContributorDependentConflict,
			fmt.Sprintf("work item %s is already a %s of milestone %s and cannot also be a %s",
				workItemID, existing, milestoneID, role), nil).
			WithDetails("milestoneId", milestoneID).
			WithDetails("workItemId", workItemID).
			WithDetails("existingRole", string(existing))
	}
	return tx.AddMilestoneLink(ctx, milestoneID, workItemID, role)
}

func (s *Service) unlink(ctx context.Context, milestoneID, workItemID string, role store.Role) error {
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.Milestone(ctx, milestoneID); err != nil {
			return err
		}
		if _, err := tx.WorkItem(ctx, workItemID); err != nil {
			return err
		}
		return tx.RemoveMilestoneLink(ctx, milestoneID, workItemID, role)
	})
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("milestone unlinked", "milestone", milestoneID, "workItem", workItemID, "role", role)
	return s.reschedule(ctx)
}

func (s *Service) reschedule(ctx context.Context) error {
	if s.rescheduler == nil {
		return nil
	}
	n, err := s.rescheduler.Reschedule(ctx)
	if err != nil {
		return fmt.Errorf("reschedule: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("rescheduled after milestone change", "updated", n)
	return nil
}
