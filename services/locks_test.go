package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTournamentLocksSerializePerTournament(t *testing.T) {
	locks := NewTournamentLocks()
	unlock := locks.Lock("a")

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		locks.Lock("a")()
	}()

	// another tournament is not blocked
	locks.Lock("b")()

	assert.Eventually(t, func() bool { return locks.Held("a") == 2 }, time.Second, time.Millisecond)
	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired
	assert.Zero(t, locks.Held("a"))
	assert.Zero(t, locks.Held("b"))
}

func TestTournamentLocksCounter(t *testing.T) {
	locks := NewTournamentLocks()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("t")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.Held("t"))
}
