package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/haanna/anna/internal/ui"
	"github.com/haanna/anna/pkg/anna"
)

// SetpointStep is how far one +/- keypress moves the target temperature.
const SetpointStep = 0.5

// Source supplies status snapshots. *anna.Client satisfies it.
type Source interface {
	Status(ctx context.Context) (*anna.Status, error)
}

// Adjuster changes the target temperature. Without one the +/- keys are disabled.
type Adjuster interface {
	SetTarget(ctx context.Context, temperature float64) error
}

// AdjusterFunc adapts a function to Adjuster.
type AdjusterFunc func(ctx context.Context, temperature float64) error

// SetTarget calls f.
func (f AdjusterFunc) SetTarget(ctx context.Context, temperature float64) error {
	return f(ctx, temperature)
}

// Messages
type statusMsg struct {
	status *anna.Status
	err    error
	at     time.Time
}

type tickMsg struct {
	seq int
}

type adjustMsg struct {
	target float64
	err    error
}

type keyMap struct {
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Up, k.Down, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "warmer"),
		),
		Down: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "cooler"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is a live thermostat view that re-polls the gateway on an interval.
type Model struct {
	title    string
	source   Source
	adjuster Adjuster
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	status  *anna.Status
	err     error
	notice  string
	updated time.Time
	loading bool
	seq     int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	width   int
}

// Option configures a Model.
type Option func(*Model)

// WithAdjuster enables setpoint changes from the keyboard.
func WithAdjuster(a Adjuster) Option {
	return func(m *Model) { m.adjuster = a }
}

// WithTimeout bounds each status fetch.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

// New creates a watch model polling source every interval.
func New(title string, source Source, interval time.Duration, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	if interval <= 0 {
		interval = 30 * time.Second
	}

	m := Model{
		title:    title,
		source:   source,
		interval: interval,
		timeout:  10 * time.Second,
		now:      time.Now,
		loading:  true,
		spinner:  s,
		help:     help.New(),
		keys:     defaultKeyMap(),
		width:    ui.MaxContentWidth,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and the first fetch
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	source, timeout, now := m.source, m.timeout, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s, err := source.Status(ctx)
		return statusMsg{status: s, err: err, at: now()}
	}
}

func (m Model) schedule() tea.Cmd {
	seq := m.seq
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (m Model) adjust(target float64) tea.Cmd {
	adjuster, timeout := m.adjuster, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return adjustMsg{target: target, err: adjuster.SetTarget(ctx, target)}
	}
}

// refresh starts a fetch now. Bumping seq drops any tick already in flight.
func (m Model) refresh() (Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.fetch())
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = ui.ClampWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case statusMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, m.schedule()
		}
		m.status = msg.status
		m.updated = msg.at
		return m, tea.Batch(m.schedule(), tea.SetWindowTitle(m.title+": "+msg.status.Summary()))

	case tickMsg:
		if msg.seq != m.seq || m.loading {
			return m, nil
		}
		return m.refresh()

	case adjustMsg:
		if msg.err != nil {
			m.notice = ""
			m.err = msg.err
			return m, nil
		}
		m.notice = fmt.Sprintf("Target set to %s°C", anna.FormatSetpoint(msg.target))
		return m.refresh()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil
		}
		return m.refresh()

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		if m.adjuster == nil || m.status == nil {
			return m, nil
		}
		target := m.status.TargetTemperature + SetpointStep
		if key.Matches(msg, m.keys.Down) {
			target = m.status.TargetTemperature - SetpointStep
		}
		if target < anna.MinSetpoint || target > anna.MaxSetpoint {
			m.notice = fmt.Sprintf("Target must stay between %s and %s°C",
				anna.FormatSetpoint(anna.MinSetpoint), anna.FormatSetpoint(anna.MaxSetpoint))
			return m, nil
		}
		optimistic := *m.status
		optimistic.TargetTemperature = target
		m.status = &optimistic
		m.notice = fmt.Sprintf("Setting target to %s°C...", anna.FormatSetpoint(target))
		return m, m.adjust(target)
	}

	return m, nil
}

// Status returns the most recent successful snapshot, or nil.
func (m Model) Status() *anna.Status {
	return m.status
}

// Err returns the error from the last fetch or adjustment, if any.
func (m Model) Err() error {
	return m.err
}

// View renders the card, the preset table and the key help
func (m Model) View() string {
	var b strings.Builder

	if m.status == nil {
		if m.err != nil {
			b.WriteString(ui.ErrorTitleStyle.Render(ui.FailureMarker+" "+anna.ShortMessage(m.err)) + "\n")
		} else {
			b.WriteString(fmt.Sprintf("%s Reading %s...\n", m.spinner.View(), m.title))
		}
		b.WriteString("\n" + m.help.View(m.keys) + "\n")
		return b.String()
	}

	b.WriteString(ui.RenderStatusCard(m.title, m.status, m.width))
	b.WriteString("\n")
	b.WriteString(ui.RenderPresetTable(m.status))
	b.WriteString("\n\n")

	line := ui.StepPendingStyle.Render("Updated " + m.updated.Format("15:04:05"))
	if m.loading {
		line = m.spinner.View() + " Refreshing..."
	}
	b.WriteString(line + "\n")

	if m.err != nil {
		b.WriteString(ui.ErrorMessageStyle.Render(ui.WarningMarker+" "+anna.ShortMessage(m.err)) + "\n")
	} else if m.notice != "" {
		b.WriteString(ui.StepNoteStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

// Run runs the watch view until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	return err
}
