// Package tui implements the interactive control panel: four numeric inputs
// on the left, the SIR chart on the right, recomputed on every change.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/episim/internal/chart"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epidemic"
)

type Model struct {
	cfg      *config.Config
	defaults config.Config

	cursor  int
	editing bool
	editBuf string

	result *epidemic.Result
	err    error
	runs   int

	width, height int
}

// NewModel runs the first simulation immediately so the chart is never empty
// for valid input.
func NewModel(cfg *config.Config) Model {
	c := *cfg
	m := Model{cfg: &c, defaults: c, width: 100, height: 30}
	m.recompute()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Result() *epidemic.Result { return m.result }

func (m Model) Err() error { return m.err }

// Runs counts completed recomputations.
func (m Model) Runs() int { return m.runs }

func (m Model) Config() config.Config { return *m.cfg }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.editKey(msg)
		}
		return m.navKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m Model) navKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	field := config.Fields[m.cursor]

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(config.Fields)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, formatValue(field.Get(m.cfg))
	case "left", "h":
		field.Set(m.cfg, field.Get(m.cfg)-field.Step)
		m.recompute()
	case "right", "l":
		field.Set(m.cfg, field.Get(m.cfg)+field.Step)
		m.recompute()
	case "r":
		*m.cfg = m.defaults
		m.recompute()
	}
	return m, nil
}

func (m Model) editKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	field := config.Fields[m.cursor]

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		v, err := config.ParseField(field.Key, m.editBuf)
		m.editing, m.editBuf = false, ""
		if err != nil {
			m.err = err
			return m, nil
		}
		field.Set(m.cfg, v)
		m.recompute()
	case "esc":
		m.editing, m.editBuf = false, ""
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-+eE") {
			m.editBuf += s
		}
	}
	return m, nil
}

// recompute runs a fresh, independent simulation for the current inputs. On
// failure the previous chart stays up and the error is shown.
func (m *Model) recompute() {
	sim, err := m.cfg.Simulator()
	if err != nil {
		m.err = err
		return
	}
	res, err := sim.Run(m.cfg.Params())
	if err != nil {
		m.err = err
		return
	}
	m.result, m.err = res, nil
	m.runs++
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func (m Model) View() string {
	left := m.viewControls()
	right := m.viewChart(lipgloss.Width(left))

	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("Basic SIR Curve") + "\n  " + subStyle.Render(strings.Repeat("─", 40)) + "\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString("  " + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n  " + keyHint("j/k", "select") + keyHint("enter", "edit") + keyHint("h/l", "adjust") + keyHint("r", "reset") + keyHint("q", "quit") + "\n")
	return b.String()
}

func (m Model) viewControls() string {
	var b strings.Builder
	for i, f := range config.Fields {
		valStr := formatValue(f.Get(m.cfg))
		if m.editing && i == m.cursor {
			valStr = m.editBuf + "_"
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("%s %s\n  %s\n", cursorStyle.Render("▸"), activeLabel.Render(f.Label+":"), activeValue.Render(valStr)))
		} else {
			b.WriteString(fmt.Sprintf("  %s\n  %s\n", idleLabel.Render(f.Label+":"), idleValue.Render(valStr)))
		}
		if i < len(config.Fields)-1 {
			b.WriteString("\n")
		}
	}

	if m.result != nil {
		b.WriteString("\n")
		for _, name := range []string{"peak_infected", "peak_time", "final_recovered"} {
			b.WriteString(fmt.Sprintf("  %s %s\n", metricLabel.Render(fmt.Sprintf("%-16s", name)), metricValue.Render(formatValue(m.result.Metrics[name]))))
		}
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewChart(leftWidth int) string {
	if m.result == nil {
		return subStyle.Render("no simulation yet")
	}
	w := m.width - leftWidth - 16
	if w < 20 {
		w = 20
	}
	h := m.height - 14
	if h < 8 {
		h = 8
	}
	return chart.Plot(m.result, chart.Options{Width: w, Height: h, Color: true})
}

// Run starts the control panel on the terminal's alternate screen.
func Run(cfg *config.Config) error {
	_, err := tea.NewProgram(NewModel(cfg), tea.WithAltScreen()).Run()
	return err
}
