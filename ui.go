package main

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go-match/internal/deck"
	"go-match/internal/game"
	"go-match/internal/scoring"
	"go-match/internal/state"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	redStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boldStyle  = lipgloss.NewStyle().Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(4).
			Align(lipgloss.Center)
	matchedStyle = cardStyle.BorderForeground(lipgloss.Color("10")).Faint(true)
	cursorStyle  = cardStyle.BorderForeground(lipgloss.Color("11")).Bold(true)
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Flip    key.Binding
	Restart key.Binding
	Next    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Flip, k.Restart, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Flip, k.Restart, k.Next},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Flip:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "flip")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next round")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// refreshMsg is sent by the game when a timer changes the board.
type refreshMsg struct{}

type LocalState struct {
	Session *game.Session

	help    help.Model
	cursor  int
	cols    int
	message string
}

func newLocalState(sess *game.Session) *LocalState {
	n := len(sess.CurrentGame.Snapshot().Cards)
	return &LocalState{
		Session: sess,
		help:    help.New(),
		cols:    gridColumns(n),
	}
}

// gridColumns lays n cards out as close to square as possible.
func gridColumns(n int) int {
	return max(1, int(math.Ceil(math.Sqrt(float64(n)))))
}

func (s *LocalState) Init() tea.Cmd {
	return nil
}

func (s *LocalState) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return s, nil
	case tea.WindowSizeMsg:
		s.help.Width = msg.Width
	case tea.KeyMsg:
		n := len(s.Session.CurrentGame.Snapshot().Cards)
		switch {
		case key.Matches(msg, keys.Quit):
			return s, tea.Quit
		case key.Matches(msg, keys.Help):
			s.help.ShowAll = !s.help.ShowAll
		case key.Matches(msg, keys.Up):
			if s.cursor-s.cols >= 0 {
				s.cursor -= s.cols
			}
		case key.Matches(msg, keys.Down):
			if s.cursor+s.cols < n {
				s.cursor += s.cols
			}
		case key.Matches(msg, keys.Left):
			if s.cursor%s.cols > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Right):
			if s.cursor%s.cols < s.cols-1 && s.cursor+1 < n {
				s.cursor++
			}
		case key.Matches(msg, keys.Flip):
			outcome, err := s.Session.Flip(s.cursor)
			s.message = flipMessage(outcome, err)
		case key.Matches(msg, keys.Restart):
			if err := s.Session.Restart(); err != nil {
				s.message = redStyle.Render(err.Error())
			} else {
				s.message = "New board dealt."
			}
		case key.Matches(msg, keys.Next):
			if err := s.Session.NextRound(); err != nil {
				s.message = "Finish this round first, or press r to restart."
			} else {
				s.message = ""
			}
		}
	}
	return s, nil
}

func flipMessage(outcome state.Outcome, err error) string {
	switch {
	case errors.Is(err, state.ErrChecking):
		return "Wait for the cards to turn back."
	case errors.Is(err, state.ErrCardUnavailable):
		return "That card is already face up."
	case errors.Is(err, state.ErrRoundComplete):
		return "Round complete! Press n to play again."
	case err != nil:
		return redStyle.Render(err.Error())
	}
	switch outcome {
	case state.OutcomeMatch:
		return greenStyle.Render("Match!")
	case state.OutcomeMismatch:
		return redStyle.Render("No match.")
	default:
		return ""
	}
}

func (s *LocalState) renderCard(c deck.Card, selected bool) string {
	face := "?"
	if !c.Hidden() {
		face = c.Symbol
	}
	style := cardStyle
	switch {
	case selected:
		style = cursorStyle
	case c.IsMatched:
		style = matchedStyle
	}
	return style.Render(face)
}

func (s *LocalState) RenderBoard(snap game.Snapshot) string {
	var rows []string
	for start := 0; start < len(snap.Cards); start += s.cols {
		end := min(start+s.cols, len(snap.Cards))
		row := make([]string, 0, s.cols)
		for _, c := range snap.Cards[start:end] {
			row = append(row, s.renderCard(c, c.ID == s.cursor && snap.Status != state.StatusComplete))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (s *LocalState) View() string {
	snap := s.Session.CurrentGame.Snapshot()
	hist := s.Session.History

	var b strings.Builder
	b.WriteString(boldStyle.Render(fmt.Sprintf("MEMORY MATCH | %s", s.Session.Player)))
	b.WriteString("\n\n")
	b.WriteString(s.RenderBoard(snap))
	b.WriteString("\n")

	statusLine := fmt.Sprintf("MOVES: %d | PAIRS: %d/%d | TIME: %02d:%02d | SCORE: %d",
		snap.Moves, snap.MatchedPairs, snap.Pairs, snap.Duration/60, snap.Duration%60, snap.Score)
	if rounds := s.Session.RoundsPlayed(); rounds > 0 {
		statusLine += fmt.Sprintf(" | ROUNDS: %d | TOTAL: %d", rounds, s.Session.TotalScore())
	}
	b.WriteString(scoreStyle.Render(statusLine))
	b.WriteString("\n")

	if snap.Status == state.StatusComplete {
		b.WriteString("\n" + greenStyle.Render(fmt.Sprintf("Well done! Score: %d/%d", snap.Score, scoring.MaxScore)))
		if hist.GotHighScore() {
			b.WriteString("\nYou got a high score! Top 5 scores:")
			for _, entry := range hist.GetNScoreEntries(5) {
				b.WriteString(fmt.Sprintf("\n  * %d on %s", entry.Score, entry.Timestamp))
			}
		}
		b.WriteString("\n")
	} else if hist.Attempts > 0 && hist.GetHighScoreEntry() != nil {
		b.WriteString(fmt.Sprintf("\nAttempt: %d | High score (%d pairs): %d\n", hist.Attempts+1, snap.Pairs, hist.GetHighScoreEntry().Score))
	} else {
		b.WriteString("\nThis is your first try on this board! Good luck!\n")
	}

	if s.message != "" {
		b.WriteString("\n" + s.message + "\n")
	}
	b.WriteString("\n" + s.help.View(keys))
	return b.String()
}
