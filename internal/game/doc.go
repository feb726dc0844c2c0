// Package game implements the pebble-removal game played between a human and
// an automated player.
//
// Each turn removes between one and MaxPebblesPerTurn pebbles from a shared
// pile; whoever takes the last pebble wins. The main type is Engine, which
// owns a single game's State, validates human turns, asks a Strategist for the
// automated reply and detects the winner.
//
// # Basic Usage
//
//	cfg := game.Config{PebblesCount: 15, MaxPebblesPerTurn: 2, Difficulty: game.Easy}
//	e, err := game.New(cfg, bot.New(src), src)
//	if err != nil {
//	    return err
//	}
//	ev, err := e.Turn(1)
//	if errors.Is(err, game.ErrInvalidTurn) {
//	    // rejected, state unchanged
//	}
//
// # Deterministic Testing
//
// Randomness comes only from the injected randutil.Source: one draw picks the
// first player and the easy strategist draws one value per automated move.
// Use randutil.NewScripted to pin both:
//
//	src := randutil.NewScripted(0, 5) // human first, then automated draws 5
//	e, _ := game.New(cfg, bot.New(src), src)
//
// Engines are not safe for concurrent use. Each caller owns its own engine.
package game
