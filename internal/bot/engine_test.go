package bot_test

import (
	"testing"

	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(t *testing.T, cfg game.Config, src randutil.Source) *game.Engine {
	t.Helper()
	e, err := game.New(cfg, bot.New(src), src)
	require.NoError(t, err)
	return e
}

func TestInitEasyGame(t *testing.T) {
	cfg := game.Config{PebblesCount: 15, MaxPebblesPerTurn: 2, Difficulty: game.Easy}

	for seed := int64(0); seed < 20; seed++ {
		st := newGame(t, cfg, randutil.NewSeeded(seed)).State()

		assert.Equal(t, uint32(15), st.Config.PebblesCount)
		assert.Equal(t, uint32(2), st.Config.MaxPebblesPerTurn)
		assert.Equal(t, game.Easy, st.Config.Difficulty)
		assert.Nil(t, st.Winner)

		switch st.FirstPlayer {
		case game.Human:
			assert.Equal(t, uint32(15), st.PebblesRemaining)
		case game.Automated:
			assert.Contains(t, []uint32{13, 14}, st.PebblesRemaining)
		}
	}
}

func TestPlayToCompletion(t *testing.T) {
	cfg := game.Config{PebblesCount: 15, MaxPebblesPerTurn: 2, Difficulty: game.Easy}

	for seed := int64(0); seed < 20; seed++ {
		e := newGame(t, cfg, randutil.NewSeeded(seed))
		first := e.State().FirstPlayer

		_, err := e.Turn(cfg.MaxPebblesPerTurn + 1)
		require.ErrorIs(t, err, game.ErrInvalidTurn)

		wantWinner := game.Automated
		for e.State().PebblesRemaining > 0 {
			st := e.State()
			take := uint32(1)
			if st.PebblesRemaining <= cfg.MaxPebblesPerTurn {
				take = st.PebblesRemaining
				wantWinner = game.Human
			}
			ev, err := e.Turn(take)
			require.NoError(t, err)
			if ev.Type == game.EventTypeCounterTurn {
				assert.GreaterOrEqual(t, ev.Count, uint32(1))
				assert.LessOrEqual(t, ev.Count, cfg.MaxPebblesPerTurn)
			}
			assert.Equal(t, first, e.State().FirstPlayer)
			assert.Equal(t, e.State().Winner != nil, e.State().PebblesRemaining == 0)
		}

		st := e.State()
		require.NotNil(t, st.Winner)
		assert.Equal(t, wantWinner, *st.Winner)
	}
}

func TestHardAlwaysWinsFromWinningPosition(t *testing.T) {
	// 14 mod 3 != 0, so an automated player moving first cannot lose.
	cfg := game.Config{PebblesCount: 14, MaxPebblesPerTurn: 2, Difficulty: game.Hard}
	src := randutil.NewScripted(1) // automated first; hard play needs no more draws
	e := newGame(t, cfg, src)
	require.Equal(t, uint32(12), e.State().PebblesRemaining)

	for e.State().Winner == nil {
		_, err := e.Turn(min(2, e.State().PebblesRemaining))
		require.NoError(t, err)
	}
	assert.Equal(t, game.Automated, *e.State().Winner)
}

func TestGiveUpAndRestart(t *testing.T) {
	cfg := game.Config{PebblesCount: 15, MaxPebblesPerTurn: 2, Difficulty: game.Easy}
	e := newGame(t, cfg, randutil.NewSeeded(3))

	assert.Equal(t, game.Won(game.Automated), e.GiveUp())
	require.Equal(t, game.Automated, *e.State().Winner)

	next := game.Config{PebblesCount: 35, MaxPebblesPerTurn: 5, Difficulty: game.Hard}
	require.NoError(t, e.Restart(next))

	st := e.State()
	assert.Nil(t, st.Winner)
	assert.Equal(t, next, st.Config)
	if st.FirstPlayer == game.Automated {
		// 35 mod 6 == 5
		assert.Equal(t, uint32(30), st.PebblesRemaining)
	} else {
		assert.Equal(t, uint32(35), st.PebblesRemaining)
	}
}
