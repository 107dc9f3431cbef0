package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/volley-tournament/broadcast"
	"github.com/Dosada05/volley-tournament/formats"
	"github.com/Dosada05/volley-tournament/metrics"
	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
	"github.com/Dosada05/volley-tournament/schedule"
)

// PlanArchiver keeps a copy of every changed schedule plan.
type PlanArchiver interface {
	Archive(ctx context.Context, plan *models.SchedulePlan) error
}

type Deps struct {
	Store    repositories.Store
	Catalog  *formats.Catalog
	Notifier broadcast.Notifier
	Archive  PlanArchiver // optional
	Metrics  metrics.EngineMetrics
	Locks    *TournamentLocks

	// DefaultMaxCourts caps concurrent playoff matches when a stage sets no limit.
	DefaultMaxCourts int
	NewID            func() string
	Now              func() time.Time
}

// Engine holds what the services share: the store, the per-tournament locks
// and the post-commit delivery of events and plans.
type Engine struct {
	store            repositories.Store
	catalog          *formats.Catalog
	notifier         broadcast.Notifier
	archive          PlanArchiver
	metrics          metrics.EngineMetrics
	locks            *TournamentLocks
	defaultMaxCourts int
	newID            func() string
	now              func() time.Time
}

func NewEngine(d Deps) *Engine {
	e := &Engine{
		store:            d.Store,
		catalog:          d.Catalog,
		notifier:         d.Notifier,
		archive:          d.Archive,
		metrics:          d.Metrics,
		locks:            d.Locks,
		defaultMaxCourts: d.DefaultMaxCourts,
		newID:            d.NewID,
		now:              d.Now,
	}
	if e.notifier == nil {
		e.notifier = broadcast.Nop
	}
	if e.metrics == nil {
		e.metrics = metrics.NewNoop()
	}
	if e.locks == nil {
		e.locks = NewTournamentLocks()
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

type mutation func(ctx context.Context, tx repositories.Store) error

// mutate runs fn and, when sync is set, a schedule sync in one transaction
// while holding the tournament's lock. Events emitted inside are delivered
// only after commit.
func (e *Engine) mutate(ctx context.Context, tournamentID, operation string, sync bool, fn mutation) (*SyncResult, error) {
	unlock := e.locks.Lock(tournamentID)
	defer unlock()

	logger := log.Ctx(ctx).With().Str("tournament_id", tournamentID).Str("operation", operation).Logger()
	ctx = logger.WithContext(ctx)
	ctx, scope := broadcast.WithScope(ctx)
	start := time.Now()

	var result *SyncResult
	err := e.store.RunInTx(ctx, func(tx repositories.Store) error {
		if fn != nil {
			if err := fn(ctx, tx); err != nil {
				return err
			}
		}
		if !sync {
			return nil
		}
		r, err := e.syncTx(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		scope.Discard()
		e.metrics.AddRollback(operation)
		if sync {
			e.metrics.ObserveSync(metrics.SyncFailed, time.Since(start))
		}
		if errors.Is(err, ErrMaterialization) {
			logger.Error().Err(err).Msg("materialization rolled back")
		} else {
			logger.Debug().Err(err).Msg("operation rejected")
		}
		return nil, err
	}

	scope.Flush(ctx, e.notifier)
	if result != nil {
		e.afterSync(ctx, result, time.Since(start))
	}
	return result, nil
}

func (e *Engine) afterSync(ctx context.Context, r *SyncResult, elapsed time.Duration) {
	outcome := metrics.SyncUnchanged
	if r.Changed {
		outcome = metrics.SyncChanged
	}
	e.metrics.ObserveSync(outcome, elapsed)
	e.metrics.AddMaterialized(r.Created, r.Updated, r.Removed)

	log.Ctx(ctx).Info().
		Bool("changed", r.Changed).
		Int("created", r.Created).
		Int("updated", r.Updated).
		Int("removed", r.Removed).
		Dur("elapsed", elapsed).
		Msg("schedule synced")

	if r.Changed && e.archive != nil {
		if err := e.archive.Archive(ctx, r.Plan); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("hash", r.Plan.Hash).Msg("failed to archive schedule plan")
		}
	}
}

// tournamentOf reads the tournament a match belongs to, outside any lock.
func (e *Engine) tournamentOf(ctx context.Context, matchID string) (string, error) {
	m, err := e.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return "", storeError(err)
	}
	return m.TournamentID, nil
}

// loadSnapshot reads the whole stored state of a tournament. Reads run in
// parallel only outside a transaction, since a transaction owns a single connection.
func (e *Engine) loadSnapshot(ctx context.Context, store repositories.Store, tournamentID string, parallel bool) (*schedule.Snapshot, error) {
	t, err := store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, storeError(err)
	}
	f, err := e.catalog.Get(t.FormatID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	t.Format = f

	snap := &schedule.Snapshot{Tournament: t}
	g, gCtx := errgroup.WithContext(ctx)
	if !parallel {
		g.SetLimit(1)
	}

	g.Go(func() error {
		teams, err := store.Teams().ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load teams: %w", err)
		}
		snap.Teams = teams
		return nil
	})
	g.Go(func() error {
		pools, err := store.Pools().ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load pools: %w", err)
		}
		snap.Pools = pools
		return nil
	})
	g.Go(func() error {
		matches, err := store.Matches().ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		snap.Matches = matches
		return nil
	})
	g.Go(func() error {
		overrides, err := store.Overrides().ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load overrides: %w", err)
		}
		snap.Overrides = overrides
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (e *Engine) structure(t *models.Tournament) (*schedule.Structure, error) {
	st, err := schedule.BuildStructure(t.Format, t.Courts, e.defaultMaxCourts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return st, nil
}

// resolver returns a resolver over the latest committed state.
func (e *Engine) resolver(ctx context.Context, tournamentID string) (*schedule.Resolver, *schedule.Structure, *schedule.Snapshot, error) {
	snap, err := e.loadSnapshot(ctx, e.store, tournamentID, true)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := e.structure(snap.Tournament)
	if err != nil {
		return nil, nil, nil, err
	}
	return schedule.NewResolver(st, snap), st, snap, nil
}
