// Package monitor implements the live census view: a table of the
// domain's nodes and services that refreshes whenever the registry
// watcher reports a change.
package monitor

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/memlink-ipc/memlink/internal/config"
	"github.com/memlink-ipc/memlink/internal/discovery"
	"github.com/memlink-ipc/memlink/internal/node"
	"github.com/memlink-ipc/memlink/internal/pubsub"
	"github.com/memlink-ipc/memlink/internal/service"
	"github.com/memlink-ipc/memlink/internal/watcher"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	stateText = map[string]lipgloss.Style{
		"alive":        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"dead":         lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"inaccessible": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"undefined":    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

// censusMsg carries the result of one registry scan.
type censusMsg struct {
	rows     []table.Row
	alive    int
	dead     int
	services int
	err      error
}

// registryChangedMsg reports that the watcher saw the registries change.
type registryChangedMsg struct{}

// Model is the bubbletea model of the monitor.
type Model struct {
	domain   config.Config
	table    table.Model
	changes  <-chan struct{}
	local    *pubsub.ContinuousListener[node.ID]
	scanOpts []discovery.Option
	stop     func() error

	alive    int
	dead     int
	services int
	scanErr  error
	width    int
}

// New creates a monitor for the domain and starts its registry watcher.
// Scan options (such as discovery.WithTracer) apply to every census the
// monitor takes.
func New(domain config.Config, scanOpts ...discovery.Option) (Model, error) {
	w, err := watcher.New(watcher.DefaultConfig(domain))
	if err != nil {
		return Model{}, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return Model{}, err
	}

	// The watcher only sees the file system. Nodes of this process's local
	// backend announce themselves over the registry broker instead.
	ctx, cancel := context.WithCancel(context.Background())
	local := pubsub.NewContinuousListener(ctx, node.DefaultLocal.Events())

	columns := []table.Column{
		{Title: "STATE", Width: 14},
		{Title: "NODE ID", Width: 38},
		{Title: "NAME", Width: 24},
		{Title: "PID", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return Model{
		domain:   domain,
		table:    t,
		changes:  changes,
		local:    local,
		scanOpts: scanOpts,
		stop: func() error {
			cancel()
			return w.Stop()
		},
	}, nil
}

// Close stops the registry watcher. Call it after the program finishes.
func (m Model) Close() error {
	if m.stop != nil {
		return m.stop()
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.waitForChange(), m.local.Listen())
}

// refresh scans the registries off the UI goroutine.
func (m Model) refresh() tea.Cmd {
	domain := m.domain
	opts := m.scanOpts
	return func() tea.Msg {
		msg := censusMsg{}
		_, err := discovery.List[service.InterProcess](context.Background(), domain,
			func(s discovery.NodeState) discovery.Progression {
				msg.rows = append(msg.rows, rowFor(s))
				switch s.(type) {
				case discovery.Alive:
					msg.alive++
				case discovery.Dead:
					msg.dead++
				}
				return discovery.Continue
			}, opts...)
		if err != nil {
			msg.err = err
			return msg
		}

		// Local-backend nodes live in this process and are always alive.
		_, _ = discovery.List[service.IntraProcess](context.Background(), domain,
			func(s discovery.NodeState) discovery.Progression {
				msg.rows = append(msg.rows, rowFor(s))
				if _, ok := s.(discovery.Alive); ok {
					msg.alive++
				}
				return discovery.Continue
			}, opts...)

		if services, err := service.ListStatic(domain); err == nil {
			msg.services = len(services)
		}
		return msg
	}
}

// waitForChange blocks until the watcher reports registry activity.
func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		<-changes
		return registryChangedMsg{}
	}
}

func rowFor(s discovery.NodeState) table.Row {
	state, name, pid := "undefined", "", ""
	switch v := s.(type) {
	case discovery.Alive:
		state = "alive"
		if details, ok := v.Details(); ok {
			name = details.Name.String()
			pid = fmt.Sprintf("%d", details.Pid)
		}
	case discovery.Dead:
		state = "dead"
		if details, ok := v.Details(); ok {
			name = details.Name.String()
			pid = fmt.Sprintf("%d", details.Pid)
		}
	case discovery.Inaccessible:
		state = "inaccessible"
	}
	return table.Row{stateText[state].Render(state), s.ID().String(), name, pid}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(msg.Height - 5)
		return m, nil

	case censusMsg:
		m.scanErr = msg.err
		if msg.err == nil {
			m.table.SetRows(msg.rows)
			m.alive = msg.alive
			m.dead = msg.dead
			m.services = msg.services
		}
		return m, nil

	case registryChangedMsg:
		return m, tea.Batch(m.refresh(), m.waitForChange())

	case pubsub.Event[node.ID]:
		return m, tea.Batch(m.refresh(), m.local.Listen())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	title := titleStyle.Render("memlink monitor") +
		footerStyle.Render("  "+m.domain.Root())

	footer := footerStyle.Render(fmt.Sprintf(
		"%d alive · %d dead · %d services   r refresh · q quit",
		m.alive, m.dead, m.services))

	body := m.table.View()
	if m.scanErr != nil {
		body = errorStyle.Render("scan failed: "+m.scanErr.Error()) + "\n" + body
	}

	return title + "\n" + body + "\n" + footer
}
