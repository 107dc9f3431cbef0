package services

import "sync"

// TournamentLocks serializes mutating operations per tournament within one process.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[string]*tournamentLock
}

type tournamentLock struct {
	mu      sync.Mutex
	waiters int
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[string]*tournamentLock)}
}

// Lock blocks until the tournament is free and returns its unlock function.
func (l *TournamentLocks) Lock(tournamentID string) (unlock func()) {
	l.mu.Lock()
	lock, ok := l.locks[tournamentID]
	if !ok {
		lock = &tournamentLock{}
		l.locks[tournamentID] = lock
	}
	lock.waiters++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.waiters--
		if lock.waiters == 0 {
			delete(l.locks, tournamentID)
		}
		l.mu.Unlock()
	}
}

// Held returns how many callers hold or wait for the tournament's lock.
func (l *TournamentLocks) Held(tournamentID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lock, ok := l.locks[tournamentID]; ok {
		return lock.waiters
	}
	return 0
}
