package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
)

const (
	sidebarWidth   = 26
	pilePerRow     = 10
	maxPileDrawn   = 60
	requestTimeout = 10 * time.Second
)

// Messages produced by backend commands.
type (
	stateMsg struct {
		state     game.State
		gameID    string
		opening   uint32
		restarted bool
	}
	eventMsg struct {
		event  game.Event
		took   uint32
		gaveUp bool
	}
	errMsg struct{ err error }
)

// Model is the Bubble Tea model for a pebbles game.
type Model struct {
	backend Backend
	logger  *log.Logger

	logViewport viewport.Model
	input       textinput.Model

	gameLog  []string
	state    game.State
	gameID   string
	hasState bool
	busy     bool
	quitting bool

	width  int
	height int
}

// New creates a model that plays through backend.
func New(backend Backend, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "How many pebbles? (or 'help')"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(focusedBorder).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		backend:     backend,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
	}
}

// Run starts the interactive program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, backend Backend, logger *log.Logger) error {
	p := tea.NewProgram(New(backend, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init loads the current game.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refresh(false))
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			return m, m.submit(line)
		case "pgup":
			m.logViewport.HalfPageUp()
			return m, nil
		case "pgdown":
			m.logViewport.HalfPageDown()
			return m, nil
		}

	case stateMsg:
		m.busy = false
		m.applyState(msg)
		return m, nil

	case eventMsg:
		m.applyEvent(msg)
		return m, m.refresh(false)

	case errMsg:
		m.busy = false
		m.addError(msg.err)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit parses a line of input and starts the matching backend call.
func (m *Model) submit(line string) tea.Cmd {
	if m.busy {
		return nil
	}

	c, err := parseCommand(line)
	if err != nil {
		m.addError(err)
		return nil
	}
	m.logger.Debug("Command", "input", line)

	switch c.kind {
	case cmdHelp:
		for _, l := range helpLines {
			m.addLog(InfoStyle.Render(l))
		}
		return nil
	case cmdQuit:
		m.quitting = true
		return tea.Quit
	case cmdState:
		m.busy = true
		return m.refresh(false)
	case cmdTake:
		m.busy = true
		return m.turn(c.count)
	case cmdGiveUp:
		m.busy = true
		return m.giveUp()
	case cmdRestart:
		cfg := c.config
		if cfg == nil {
			if !m.hasState {
				m.addError(errors.New("no game to restart yet"))
				return nil
			}
			current := m.state.Config
			cfg = &current
		}
		m.busy = true
		return m.restart(*cfg)
	}
	return nil
}

func (m *Model) refresh(restarted bool) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := b.State(ctx)
		if err != nil {
			return errMsg{err}
		}
		return newStateMsg(st, restarted)
	}
}

func (m *Model) turn(n uint32) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ev, err := b.Turn(ctx, n)
		if err != nil {
			return errMsg{err}
		}
		return eventMsg{event: ev, took: n}
	}
}

func (m *Model) giveUp() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ev, err := b.GiveUp(ctx)
		if err != nil {
			return errMsg{err}
		}
		return eventMsg{event: ev, gaveUp: true}
	}
}

func (m *Model) restart(cfg game.Config) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := b.Restart(ctx, cfg)
		if err != nil {
			return errMsg{err}
		}
		return newStateMsg(st, true)
	}
}

// newStateMsg decodes a backend snapshot; a snapshot that does not describe a
// valid game is reported as an error.
func newStateMsg(data protocol.StateData, restarted bool) tea.Msg {
	st, err := protocol.StateToGame(data)
	if err != nil {
		return errMsg{fmt.Errorf("bad game snapshot: %w", err)}
	}
	msg := stateMsg{state: st, gameID: data.GameID, restarted: restarted}
	if data.Opening != nil {
		msg.opening = data.Opening.Count
	}
	return msg
}

func (m *Model) applyState(msg stateMsg) {
	first := !m.hasState
	m.state = msg.state
	m.gameID = msg.gameID
	m.hasState = true

	if !first && !msg.restarted {
		return
	}

	st := msg.state
	m.addLog(HeaderStyle.Render(fmt.Sprintf("New game: %d pebbles, take up to %d, %s",
		st.Config.PebblesCount, st.Config.MaxPebblesPerTurn, st.Config.Difficulty)))
	if msg.opening > 0 {
		m.addLog(AutomatedMoveStyle.Render(fmt.Sprintf("Automated goes first and takes %d.", msg.opening)))
	} else if st.FirstPlayer == game.Human {
		m.addLog(InfoStyle.Render("You go first."))
	}
	if st.Winner != nil {
		m.addOutcome(*st.Winner)
	}
}

func (m *Model) applyEvent(msg eventMsg) {
	switch {
	case msg.gaveUp:
		m.addLog(HumanMoveStyle.Render("You gave up."))
	case msg.took > 0:
		m.addLog(HumanMoveStyle.Render(fmt.Sprintf("You took %d.", msg.took)))
	}

	switch msg.event.Type {
	case game.EventTypeCounterTurn:
		m.addLog(AutomatedMoveStyle.Render(fmt.Sprintf("Automated took %d.", msg.event.Count)))
	case game.EventTypeWon:
		m.addOutcome(msg.event.Winner)
	}
}

func (m *Model) addOutcome(winner game.Player) {
	if winner == game.Human {
		m.addLog(SuccessStyle.Render("You win!"))
	} else {
		m.addLog(ErrorStyle.Render("Automated wins."))
	}
	m.addLog(InfoStyle.Render("Type 'restart' to play again."))
}

func (m *Model) addError(err error) {
	m.addLog(ErrorStyle.Render(err.Error()))
	if errors.Is(err, game.ErrGameOver) {
		m.addLog(InfoStyle.Render("Type 'restart' to play again."))
	}
}

func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(focusedBorder).
		Width(max(m.width-2, 1)).
		Render(actionContent)

	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedBorder).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(m.renderSidebar())

	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight
	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedBorder).
		Width(m.logViewport.Width).
		Height(paneHeight).
		Render(m.logViewport.View())

	top := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, top, actionPane)
}

func (m *Model) renderSidebar() string {
	if !m.hasState {
		return InfoStyle.Render("No game yet")
	}

	st := m.state
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", WarningStyle.Render(fmt.Sprintf("Pebbles: %d/%d", st.PebblesRemaining, st.Config.PebblesCount)))
	fmt.Fprintf(&b, "Max per turn: %d\n", st.Config.MaxPebblesPerTurn)
	fmt.Fprintf(&b, "Difficulty: %s\n", st.Config.Difficulty)
	fmt.Fprintf(&b, "First: %s\n", st.FirstPlayer)
	if m.gameID != "" {
		fmt.Fprintf(&b, "Game: %s\n", m.gameID)
	}
	if st.Winner != nil {
		fmt.Fprintf(&b, "Winner: %s\n", *st.Winner)
	}
	b.WriteString("\n")
	b.WriteString(PileStyle.Render(renderPile(st.PebblesRemaining)))
	return b.String()
}

// renderPile draws the remaining pebbles in rows, capped so a large pile
// does not swamp the sidebar.
func renderPile(remaining uint32) string {
	drawn := int(min(remaining, maxPileDrawn))
	var rows []string
	for drawn > 0 {
		n := min(drawn, pilePerRow)
		rows = append(rows, strings.Repeat("● ", n))
		drawn -= n
	}
	if remaining > maxPileDrawn {
		rows = append(rows, fmt.Sprintf("+%d more", remaining-maxPileDrawn))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderActionPane() string {
	var b strings.Builder
	switch {
	case !m.hasState:
		b.WriteString(InfoStyle.Render("Connecting..."))
	case m.state.Winner != nil:
		b.WriteString(WarningStyle.Render("Game over. Type 'restart' to play again."))
	default:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("Your turn: take 1-%d pebbles.", m.state.MaxTake())))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Enter to submit • PgUp/PgDn scroll • Ctrl+C to quit"))
	return b.String()
}
