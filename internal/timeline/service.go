// Package timeline assembles the project timeline from stored data and saves
// the computed schedule back to the store.
package timeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/steilerDev/cornerstone-sub004/internal/cpm"
	"github.com/steilerDev/cornerstone-sub004/internal/ctxlog"
	"github.com/steilerDev/cornerstone-sub004/internal/domain"
	"github.com/steilerDev/cornerstone-sub004/internal/milestone"
	"github.com/steilerDev/cornerstone-sub004/internal/store"
)

// Store is the persistence the timeline reads from and writes back to.
type Store interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	RunInTx(ctx context.Context, fn func(tx *store.Tx) error) error
}

// Service serves timeline reads and reschedules.
type Service struct {
	store Store
	now   func() time.Time
	reads singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock that supplies "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a timeline service over st.
func NewService(st Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() domain.Date {
	return domain.DateOf(s.now())
}

// Get loads a consistent snapshot and returns the full-mode timeline.
// Concurrent calls share one computation; a caller whose ctx ends stops
// waiting without failing the others.
func (s *Service) Get(ctx context.Context) (*Timeline, error) {
	ch := s.reads.DoChan("timeline", func() (any, error) {
		return s.compute(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		ctxlog.FromContext(ctx).Debug("timeline computed", "shared", res.Shared)
		return res.Val.(*Timeline), nil
	}
}

func (s *Service) compute(ctx context.Context) (*Timeline, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	today := s.today()
	r, projections := milestone.Schedule(snap, cpm.ModeFull, today)
	return Assemble(snap, r, projections, today), nil
}

// Preview returns the items whose current dates the schedule would move.
func (s *Service) Preview(ctx context.Context) (*cpm.Result, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	r, _ := milestone.Schedule(snap, cpm.ModePreview, s.today())
	return r, nil
}

// Reschedule computes the full schedule and saves it on every work item that
// is not completed. The user's own dates are never rewritten, so a removed
// constraint stops holding items back on the next reschedule. It returns how
// many items got a new saved schedule. Read, compute and write share one
// transaction.
func (s *Service) Reschedule(ctx context.Context) (int, error) {
	updated := 0
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		snap, err := tx.Snapshot(ctx)
		if err != nil {
			return err
		}
		r, _ := milestone.Schedule(snap, cpm.ModeFull, s.today())
		scheduled := r.Items()

		for i := range snap.WorkItems {
			w := &snap.WorkItems[i]
			if w.Status == domain.StatusCompleted {
				continue
			}
			si := scheduled[w.ID]
			if si == nil || (sameDay(w.ScheduledStart, si.ScheduledStartDate) && sameDay(w.ScheduledEnd, si.ScheduledEndDate)) {
				continue
			}
			if err := tx.SetScheduledDates(ctx, w.ID, si.ScheduledStartDate, si.ScheduledEndDate); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	ctxlog.FromContext(ctx).Debug("reschedule finished", "updated", updated)
	return updated, nil
}

func sameDay(saved *domain.Date, d domain.Date) bool {
	return saved != nil && saved.Equal(d)
}
