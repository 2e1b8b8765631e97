// Package dependency validates and applies changes to the dependency graph.
package dependency

import (
	"context"
	"fmt"
	"strings"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/ctxlog"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	appErrors "github.com/steilerDev/cornerstone-sub004/internal/errors"
	"github.com/steilerDev/cornerstone-sub004/internal/graph"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
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

// Service is the only write path for dependencies.
type Service struct {
	store       Store
	rescheduler Rescheduler
}

// NewService returns a dependency service. The rescheduler runs after every
// successful mutation; nil disables it.
func NewService(st Store, r Rescheduler) *Service {
	return &Service{store: st, rescheduler: r}
}

// Create validates and stores a new dependency. Every check and the insert
// share one transaction, so a rejection writes nothing.
func (s *Service) Create(ctx context.Context, d domain.Dependency) (*domain.Dependency, error) {
	created, err := s.create(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := s.reschedule(ctx); err != nil {
		return created, err
	}
	return created, nil
}

func (s *Service) create(ctx context.Context, d domain.Dependency) (*domain.Dependency, error) {
	log := ctxlog.FromContext(ctx)
	typ, err := normalizeType(d.DependencyType)
	if err != nil {
		return nil, err
	}
	d.DependencyType = typ

	err = s.store.RunInTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.WorkItem(ctx, d.PredecessorID); err != nil {
			return err
		}
		if _, err := tx.WorkItem(ctx, d.SuccessorID); err != nil {
			return err
		}
		if d.PredecessorID == d.SuccessorID {
			return appErrors.New(appErrors.CodeValidation,
				fmt.Sprintf("work item %s cannot depend on itself", d.PredecessorID), nil).
				WithDetails("cycle", []string{d.PredecessorID, d.PredecessorID})
		}
		if existing, err := tx.Dependency(ctx, d.PredecessorID, d.SuccessorID); err == nil {
			return appErrors.New(appErrors.CodeDuplicateDependency,
				fmt.Sprintf("dependency %s -> %s already exists", d.PredecessorID, d.SuccessorID), nil).
				WithDetails("existing", *existing)
		} else if !appErrors.IsCode(err, appErrors.CodeNotFound) {
			return err
		}

		items, err := tx.WorkItems(ctx)
		if err != nil {
			return err
		}
		deps, err := tx.Dependencies(ctx)
		if err != nil {
			return err
		}
		milestones, err := tx.Milestones(ctx)
		if err != nil {
			return err
		}
		g := cycleGraph(items, deps, milestones)
		if cycle := g.PathToCycle(d.PredecessorID, d.SuccessorID); cycle != nil {
			return circularError(d, cycle, titlesOf(items, milestones))
		}
		return tx.InsertDependency(ctx, d)
	})
	if err != nil {
		log.Warn("dependency rejected", "dependency", d.String(), "code", appErrors.CodeOf(err), "error", err)
		return nil, err
	}
	log.Info("dependency created", "dependency", d.String())
	return &d, nil
}

// Update changes the type and/or lead/lag of an existing dependency. The
// ordered pair does not change, so the graph's shape cannot.
func (s *Service) Update(ctx context.Context, predecessor, successor string, typ *domain.DependencyType, leadLag *int) (*domain.Dependency, error) {
	var updated domain.Dependency
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		current, err := tx.Dependency(ctx, predecessor, successor)
		if err != nil {
			return err
		}
		updated = *current
		if typ != nil {
			if updated.DependencyType, err = normalizeType(*typ); err != nil {
				return err
			}
		}
		if leadLag != nil {
			updated.LeadLagDays = *leadLag
		}
		return tx.UpdateDependency(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("dependency updated", "dependency", updated.String())
	if err := s.reschedule(ctx); err != nil {
		return &updated, err
	}
	return &updated, nil
}

// Delete removes a dependency. Removing an edge cannot create a cycle, so
// only existence is checked.
func (s *Service) Delete(ctx context.Context, predecessor, successor string) error {
	if err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteDependency(ctx, predecessor, successor)
	}); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("dependency deleted", "predecessor", predecessor, "successor", successor)
	return s.reschedule(ctx)
}

// Rejection is a dependency ApplyBatch did not create.
type Rejection struct {
	Dependency domain.Dependency
	Err        error
}

// BatchResult reports the outcome of ApplyBatch.
type BatchResult struct {
	Created  []domain.Dependency
	Rejected []Rejection
}

// ApplyBatch creates each dependency in turn, each in its own transaction,
// and reschedules once at the end if anything was created. Earlier edges in
// the batch are visible to the cycle check of later ones.
func (s *Service) ApplyBatch(ctx context.Context, deps []domain.Dependency) (*BatchResult, error) {
	res := &BatchResult{}
	for _, d := range deps {
		created, err := s.create(ctx, d)
		if err != nil {
			if appErrors.IsCode(err, appErrors.CodeStoreFailure) {
				return res, err
			}
			res.Rejected = append(res.Rejected, Rejection{Dependency: d, Err: err})
			continue
		}
		res.Created = append(res.Created, *created)
	}
	if len(res.Created) > 0 {
		if err := s.reschedule(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) reschedule(ctx context.Context) error {
	if s.rescheduler == nil {
		return nil
	}
	n, err := s.rescheduler.Reschedule(ctx)
	if err != nil {
		return fmt.Errorf("reschedule: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("rescheduled after dependency change", "updated", n)
	return nil
}

func normalizeType(t domain.DependencyType) (domain.DependencyType, error) {
	typ, err := domain.ParseDependencyType(string(t))
	if err != nil {
		return "", appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	return typ, nil
}

// cycleGraph is the dependency graph with milestone gates folded in, so a
// loop that runs through a milestone is caught as well.
func cycleGraph(items []domain.WorkItem, deps []domain.Dependency, milestones []domain.Milestone) *graph.Graph {
	gates := milestone.Gates(milestones)
	ids := make([]string, 0, len(items)+len(gates))
	for i := range items {
		ids = append(ids, items[i].ID)
	}
	for _, gt := range gates {
		ids = append(ids, gt.ID)
	}
	g, _ := graph.Build(ids, append(graph.EdgesOf(deps), cpm.GateEdges(gates)...))
	return g
}

func titlesOf(items []domain.WorkItem, milestones []domain.Milestone) map[string]string {
	titles := make(map[string]string, len(items)+len(milestones))
	for i := range items {
		titles[items[i].ID] = items[i].DisplayName()
	}
	for _, m := range milestones {
		titles[milestone.GateID(m.ID)] = "milestone " + m.Title
	}
	return titles
}

func circularError(d domain.Dependency, cycle []string, titles map[string]string) error {
	named := make([]string, len(cycle))
	for i, id := range cycle {
		named[i] = titles[id]
	}
	return appErrors.New(appErrors.CodeCircularDependency,
		fmt.Sprintf("adding %s -> %s would create a circular dependency: %s",
			d.PredecessorID, d.SuccessorID, strings.Join(named, " → ")), nil).
		WithDetails("cycle", cycle).
		WithDetails("titles", named)
}
