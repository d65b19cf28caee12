package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/northdesk/triage/internal/scoring"
	"github.com/northdesk/triage/internal/store"
)

// TeamStore is the read-only slice of the store the snapshot loader
// needs. Tests substitute an in-memory implementation.
type TeamStore interface {
	ListMembers(ctx context.Context, role string) ([]*store.Member, error)
	ListActiveTickets(ctx context.Context, memberIDs []uuid.UUID) (map[uuid.UUID][]store.ActiveTicket, error)
	ListActiveLeaves(ctx context.Context, memberIDs []uuid.UUID, today time.Time) (map[uuid.UUID]bool, error)
	ListHolidays(ctx context.Context, date time.Time, regions []store.Region) ([]store.HolidayEntry, error)
	CountRecentAssignments(ctx context.Context, memberIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
}

// Snapshot is the frozen team state a single decision runs against.
// Nothing may touch the store after the snapshot is built.
type Snapshot struct {
	Members []scoring.MemberState
	Today   time.Time

	// HasRecentCounts reports whether the store could answer the recent
	// assignment query. When false, fair distribution falls back to the
	// active ticket count.
	HasRecentCounts bool
}

// recentWindow is how far back CountRecentAssignments looks.
const recentWindow = 7 * 24 * time.Hour

// Loader assembles snapshots with one member query followed by four
// batched queries fanned out concurrently. Never more than five
// round-trips per decision.
type Loader struct {
	store  TeamStore
	logger *slog.Logger
}

func NewLoader(st TeamStore, logger *slog.Logger) *Loader {
	return &Loader{store: st, logger: logger}
}

func (l *Loader) Load(ctx context.Context, nowUTC time.Time) (*Snapshot, error) {
	start := time.Now()
	today := nowUTC.Truncate(24 * time.Hour)

	members, err := l.store.ListMembers(ctx, store.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", ErrStore, err)
	}

	memberIDs := make([]uuid.UUID, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}

	var (
		tickets  map[uuid.UUID][]store.ActiveTicket
		leaves   map[uuid.UUID]bool
		holidays []store.HolidayEntry
		recent   map[uuid.UUID]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tickets, err = l.store.ListActiveTickets(gctx, memberIDs)
		if err != nil {
			return fmt.Errorf("list active tickets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leaves, err = l.store.ListActiveLeaves(gctx, memberIDs, today)
		if err != nil {
			return fmt.Errorf("list active leaves: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		holidays, err = l.store.ListHolidays(gctx, today, []store.Region{store.RegionIN, store.RegionUS, store.RegionGlobal})
		if err != nil {
			return fmt.Errorf("list holidays: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = l.store.CountRecentAssignments(gctx, memberIDs, nowUTC.Add(-recentWindow))
		if err != nil {
			return fmt.Errorf("count recent assignments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	// Every batched row must belong to a listed member. A stray key means
	// the store queries disagree about who is on the team.
	known := make(map[uuid.UUID]bool, len(memberIDs))
	for _, id := range memberIDs {
		known[id] = true
	}
	for id := range tickets {
		if !known[id] {
			return nil, fmt.Errorf("%w: active tickets reference unknown member %s", ErrInvariant, id)
		}
	}
	for id := range leaves {
		if !known[id] {
			return nil, fmt.Errorf("%w: leave records reference unknown member %s", ErrInvariant, id)
		}
	}
	for id := range recent {
		if !known[id] {
			return nil, fmt.Errorf("%w: recent counts reference unknown member %s", ErrInvariant, id)
		}
	}

	regionalHoliday := make(map[store.Region]bool)
	globalHoliday := false
	for _, h := range holidays {
		if h.Region == store.RegionGlobal {
			globalHoliday = true
		} else {
			regionalHoliday[h.Region] = true
		}
	}

	snap := &Snapshot{
		Members:         make([]scoring.MemberState, 0, len(members)),
		Today:           today,
		HasRecentCounts: recent != nil,
	}
	for _, m := range members {
		region := store.RegionFromTimezone(m.Timezone)
		snap.Members = append(snap.Members, scoring.MemberState{
			Member:          m,
			ActiveTickets:   tickets[m.ID],
			OnLeave:         leaves[m.ID],
			RegionalHoliday: regionalHoliday[region],
			GlobalHoliday:   globalHoliday,
			RecentCount:     recent[m.ID],
		})
	}

	l.logger.Debug("snapshot loaded",
		"members", len(snap.Members),
		"global_holiday", globalHoliday,
		"has_recent_counts", snap.HasRecentCounts,
		"elapsed", time.Since(start))

	return snap, nil
}
