package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/volley-tournament/repositories"
)

// Error classes. Every error returned by the services matches exactly one of
// them with errors.Is, or is an unexpected storage failure.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrConfiguration    = errors.New("tournament configuration error")
	ErrPrecondition     = errors.New("precondition failed")
	ErrScoreValidation  = errors.New("invalid score record")
	ErrMaterialization  = errors.New("schedule materialization failed")
	ErrValidationFailed = errors.New("validation failed")
)

var (
	ErrTournamentNotFound = fmt.Errorf("%w: tournament not found", ErrNotFound)
	ErrTeamNotFound       = fmt.Errorf("%w: team not found", ErrNotFound)
	ErrPoolNotFound       = fmt.Errorf("%w: pool not found", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrPlanNotFound       = fmt.Errorf("%w: schedule plan not found", ErrNotFound)
	ErrOverrideNotFound   = fmt.Errorf("%w: standings override not found", ErrNotFound)

	ErrMissingTeams        = fmt.Errorf("%w: match does not have both teams assigned", ErrPrecondition)
	ErrInvalidTransition   = fmt.Errorf("%w: invalid match status transition", ErrPrecondition)
	ErrMatchNotEnded       = fmt.Errorf("%w: match has not ended, finalize requires override", ErrPrecondition)
	ErrMatchAlreadyFinal   = fmt.Errorf("%w: match is already final", ErrPrecondition)
	ErrMatchNotFinal       = fmt.Errorf("%w: match is not final", ErrPrecondition)
	ErrPoolLocked          = fmt.Errorf("%w: pool has started matches", ErrPrecondition)
	ErrTeamInAnotherPool   = fmt.Errorf("%w: team is already in another pool of this stage", ErrPrecondition)
	ErrRosterTooLarge      = fmt.Errorf("%w: roster exceeds pool size", ErrValidationFailed)
	ErrDuplicateTeam       = fmt.Errorf("%w: team listed more than once", ErrValidationFailed)
	ErrForeignTeam         = fmt.Errorf("%w: team does not belong to this tournament", ErrValidationFailed)
	ErrUnknownScope        = fmt.Errorf("%w: unknown standings scope", ErrValidationFailed)
	ErrTournamentNameEmpty = fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	ErrTeamNameEmpty       = fmt.Errorf("%w: team name is required", ErrValidationFailed)
	ErrInvalidSetScore     = fmt.Errorf("%w: set scores must not be negative", ErrValidationFailed)

	ErrSetCount   = fmt.Errorf("%w: a match has 2 or 3 sets", ErrScoreValidation)
	ErrTiedSet    = fmt.Errorf("%w: a set cannot end tied", ErrScoreValidation)
	ErrNoDecision = fmt.Errorf("%w: the sets do not decide a winner", ErrScoreValidation)
)

// storeError translates the repository sentinels callers care about.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrPoolNotFound):
		return ErrPoolNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrPlanNotFound):
		return ErrPlanNotFound
	case errors.Is(err, repositories.ErrOverrideNotFound):
		return ErrOverrideNotFound
	case errors.Is(err, repositories.ErrPoolNameConflict):
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return err
}
