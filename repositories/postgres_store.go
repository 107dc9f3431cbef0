package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresStore struct {
	db *sql.DB
	// exec is the open transaction, nil outside RunInTx
	exec SQLExecutor
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) executor() SQLExecutor {
	if s.exec != nil {
		return s.exec
	}
	return s.db
}

func (s *postgresStore) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: s.executor()}
}

func (s *postgresStore) Teams() TeamRepository {
	return &postgresTeamRepository{exec: s.executor()}
}

func (s *postgresStore) Pools() PoolRepository {
	return &postgresPoolRepository{exec: s.executor()}
}

func (s *postgresStore) Matches() MatchRepository {
	return &postgresMatchRepository{exec: s.executor()}
}

func (s *postgresStore) Plans() PlanRepository {
	return &postgresPlanRepository{exec: s.executor()}
}

func (s *postgresStore) Overrides() OverrideRepository {
	return &postgresOverrideRepository{exec: s.executor()}
}

func (s *postgresStore) Scoreboards() ScoreboardRepository {
	return &postgresScoreboardRepository{exec: s.executor()}
}

func (s *postgresStore) RunInTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.exec != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(&postgresStore{db: s.db, exec: tx})
}
