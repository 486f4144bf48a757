// Package tui is the interactive dashboard: a read-only, auto-refreshing
// view over the fleet state with one tab per facet.
package tui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ppiankov/clusterpulse/internal/diff"
)

// Source supplies fleet observations. Surveys run inside bubbletea
// commands, so a slow cluster never blocks the render loop.
type Source interface {
	Survey(ctx context.Context)
	Current() map[string]*diff.Observation
}

// Tabs, in display order.
const (
	tabOverview = iota
	tabOperators
	tabNodes
	tabNamespaces
	tabCount
)

var tabNames = [tabCount]string{"Overview", "Operators", "Nodes", "Namespaces"}

// Model is the bubbletea model for the dashboard.
type Model struct {
	source   Source
	interval time.Duration

	spinner    spinner.Model
	current    map[string]*diff.Observation
	clusters   []string
	selected   int
	tab        int
	lastUpdate time.Time
	refreshing bool
	width      int
	height     int
	quitting   bool
}

// tickMsg fires every second so the "updated N ago" line stays honest.
type tickMsg time.Time

// refreshTickMsg fires when the refresh interval elapses.
type refreshTickMsg time.Time

// refreshDoneMsg signals that a survey finished and a fresh snapshot
// can be read.
type refreshDoneMsg struct{}

// NewModel creates a dashboard model that refreshes every interval.
func NewModel(source Source, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		source:     source,
		interval:   interval,
		spinner:    s,
		refreshing: true,
	}
}

// Init kicks off the heartbeat and the first survey.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		refreshCmd(m.source),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % tabCount
			return m, nil
		case "shift+tab", "left", "h":
			m.tab = (m.tab + tabCount - 1) % tabCount
			return m, nil
		case "1", "2", "3", "4":
			m.tab = int(msg.String()[0] - '1')
			return m, nil
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.clusters)-1 {
				m.selected++
			}
			return m, nil
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, refreshCmd(m.source)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tickCmd()

	case refreshTickMsg:
		if m.refreshing {
			return m, refreshTimer(m.interval)
		}
		m.refreshing = true
		return m, refreshCmd(m.source)

	case refreshDoneMsg:
		m.current = m.source.Current()
		m.clusters = sortedClusters(m.current)
		if m.selected >= len(m.clusters) {
			m.selected = 0
		}
		m.lastUpdate = time.Now()
		m.refreshing = false
		return m, refreshTimer(m.interval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard — delegated to ui.go.
func (m Model) View() string {
	return renderView(m)
}

// selectedObservation returns the focused cluster, or nil before the
// first snapshot lands.
func (m Model) selectedObservation() (string, *diff.Observation) {
	if len(m.clusters) == 0 {
		return "", nil
	}
	name := m.clusters[m.selected]
	return name, m.current[name]
}

func sortedClusters(current map[string]*diff.Observation) []string {
	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func refreshTimer(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func refreshCmd(source Source) tea.Cmd {
	return func() tea.Msg {
		source.Survey(context.Background())
		return refreshDoneMsg{}
	}
}
