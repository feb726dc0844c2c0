package server

import (
	"sync"
	"testing"

	"github.com/lox/pebbles/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestStatsRecordStart(t *testing.T) {
	var s Stats
	s.RecordStart(game.State{FirstPlayer: game.Human})
	s.RecordStart(game.State{FirstPlayer: game.Automated})

	// An opening move that empties the pile counts as a finished game.
	winner := game.Automated
	s.RecordStart(game.State{FirstPlayer: game.Automated, Winner: &winner})

	snap := s.Snapshot(2)
	assert.Equal(t, 2, snap.ActiveSessions)
	assert.Equal(t, uint64(3), snap.GamesStarted)
	assert.Equal(t, uint64(2), snap.AutomatedFirst)
	assert.Equal(t, uint64(1), snap.AutomatedWins)
	assert.Zero(t, snap.HumanWins)
}

func TestStatsConcurrent(t *testing.T) {
	var s Stats
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordWin(game.Human)
			s.RecordConcession()
			s.RecordRejected()
		}()
	}
	wg.Wait()

	snap := s.Snapshot(0)
	assert.Equal(t, uint64(50), snap.HumanWins)
	assert.Equal(t, uint64(50), snap.AutomatedWins)
	assert.Equal(t, uint64(50), snap.Concessions)
	assert.Equal(t, uint64(50), snap.Rejected)
}

func TestStatsSnapshotString(t *testing.T) {
	snap := StatsSnapshot{ActiveSessions: 3, GamesStarted: 7, HumanWins: 2, Rejected: 1}
	out := snap.String()
	assert.Contains(t, out, "Active sessions: 3\n")
	assert.Contains(t, out, "Games started: 7\n")
	assert.Contains(t, out, "Human wins: 2\n")
	assert.Contains(t, out, "Rejected requests: 1\n")
}
