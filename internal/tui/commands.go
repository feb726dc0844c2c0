package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/pebbles/internal/game"
)

type commandKind int

const (
	cmdTake commandKind = iota
	cmdGiveUp
	cmdRestart
	cmdState
	cmdHelp
	cmdQuit
)

// command is a parsed line of user input.
type command struct {
	kind   commandKind
	count  uint32
	config *game.Config // nil restarts with the current settings
}

var errEmptyCommand = errors.New("type a number of pebbles to take, or 'help'")

var helpLines = []string{
	"Commands:",
	"  <n> or take <n>                 take n pebbles",
	"  giveup                          concede the game",
	"  restart                         start again with the same settings",
	"  restart <easy|hard> <count> <max>",
	"  state                           refresh the game state",
	"  help                            show this help",
	"  quit                            leave",
}

func parseCommand(input string) (command, error) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return command{}, errEmptyCommand
	}

	switch parts[0] {
	case "take", "t":
		if len(parts) != 2 {
			return command{}, fmt.Errorf("usage: take <n>")
		}
		n, err := parseCount(parts[1])
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdTake, count: n}, nil
	case "giveup", "concede":
		return command{kind: cmdGiveUp}, nil
	case "restart", "new":
		return parseRestart(parts[1:])
	case "state", "s":
		return command{kind: cmdState}, nil
	case "help", "h", "?":
		return command{kind: cmdHelp}, nil
	case "quit", "q", "exit":
		return command{kind: cmdQuit}, nil
	}

	if len(parts) == 1 {
		if n, err := parseCount(parts[0]); err == nil {
			return command{kind: cmdTake, count: n}, nil
		}
	}
	return command{}, fmt.Errorf("unknown command %q, try 'help'", parts[0])
}

func parseRestart(args []string) (command, error) {
	if len(args) == 0 {
		return command{kind: cmdRestart}, nil
	}
	if len(args) != 3 {
		return command{}, fmt.Errorf("usage: restart <easy|hard> <count> <max>")
	}

	d, err := game.ParseDifficulty(args[0])
	if err != nil {
		return command{}, err
	}
	count, err := parseCount(args[1])
	if err != nil {
		return command{}, err
	}
	maxPerTurn, err := parseCount(args[2])
	if err != nil {
		return command{}, err
	}

	cfg := game.Config{PebblesCount: count, MaxPebblesPerTurn: maxPerTurn, Difficulty: d}
	if err := cfg.Validate(); err != nil {
		return command{}, err
	}
	return command{kind: cmdRestart, config: &cfg}, nil
}

func parseCount(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a pebble count", s)
	}
	return uint32(n), nil
}
