// Package ui renders live snapshots in a tabbed terminal dashboard.
// It is a pure consumer: it polls the snapshot store and asks the
// catalog for deep views on demand, but never samples anything itself.
package ui

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"procscope/internal/config"
	"procscope/internal/fileinfo"
	"procscope/internal/model"
	"procscope/internal/proctable"
	"procscope/internal/sampler"
)

type tab int

const (
	tabOverview tab = iota
	tabProcesses
	tabDisks
	tabFiles
	tabCount
)

func (t tab) title() string {
	switch t {
	case tabOverview:
		return "overview"
	case tabProcesses:
		return "processes"
	case tabDisks:
		return "disks"
	case tabFiles:
		return "files"
	default:
		return "?"
	}
}

type keyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Enter   key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab", "prev tab")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Enter, k.Back, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab},
		{k.Enter, k.Back},
		{k.Help, k.Quit},
	}
}

// details holds the deep views fetched when a process row is opened.
// They are read once; the overlay shows a moment, not a live feed.
type details struct {
	pid   uint32
	info  model.ProcessDetails
	pages model.PageUsage
	res   model.OpenResources
}

// Model is the dashboard state.
type Model struct {
	cfg     config.Config
	store   *sampler.Store
	catalog *proctable.Catalog
	browser *fileinfo.Browser
	log     zerolog.Logger

	latest    model.Snapshot
	lastCycle uint64
	history   *RingBuffer

	tab       tab
	keys      keyMap
	help      help.Model
	procTable table.Model
	fileTable table.Model

	cwd     string
	overlay *details

	width  int
	height int
}

// New builds the dashboard model. The sampler must already be feeding
// the store; the model only reads.
func New(cfg config.Config, store *sampler.Store, catalog *proctable.Catalog, browser *fileinfo.Browser, log zerolog.Logger) *Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(lipgloss.Color("81")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("60"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))

	procTable := table.New(
		table.WithColumns(procColumns()),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	procTable.SetStyles(styles)

	fileTable := table.New(
		table.WithColumns(fileColumns()),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	fileTable.SetStyles(styles)

	m := &Model{
		cfg:       cfg,
		store:     store,
		catalog:   catalog,
		browser:   browser,
		log:       log,
		history:   NewRingBuffer(120),
		keys:      defaultKeys(),
		help:      help.New(),
		procTable: procTable,
		fileTable: fileTable,
		cwd:       cfg.StartDir,
		width:     120,
		height:    40,
	}
	m.fileTable.SetRows(fileRows(browser.List(m.cwd)))
	return m
}

type tickMsg struct{}

// The UI polls faster than it samples so keystrokes feel immediate
// even with slow intervals; unchanged cycles are cheap to skip.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if snap := m.store.Get(); snap.Cycle != m.lastCycle {
			m.lastCycle = snap.Cycle
			m.latest = snap
			m.history.Push(snap.CPU.Percent)
			m.procTable.SetRows(procRows(snap.TopProcessesByMemory))
		}
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != nil {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Enter):
			m.overlay = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		switch m.tab {
		case tabProcesses:
			m.openDetails()
		case tabFiles:
			m.enterSelectedDir()
		}
		return m, nil
	case key.Matches(msg, m.keys.Back):
		if m.tab == tabFiles {
			m.popDir()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.tab {
	case tabProcesses:
		m.procTable, cmd = m.procTable.Update(msg)
	case tabFiles:
		m.fileTable, cmd = m.fileTable.Update(msg)
	}
	return m, cmd
}

// openDetails fetches the deep views for the selected process. The
// process may have exited since the row was built; that is a quiet
// no-op, the next cycle drops the row anyway.
func (m *Model) openDetails() {
	row := m.procTable.SelectedRow()
	if row == nil {
		return
	}
	pid64, err := strconv.ParseUint(row[0], 10, 32)
	if err != nil {
		return
	}
	pid := uint32(pid64)

	info, ok := m.catalog.Details(pid)
	if !ok {
		m.log.Debug().Uint32("pid", pid).Msg("process gone before details opened")
		return
	}
	m.overlay = &details{
		pid:   pid,
		info:  info,
		pages: m.catalog.PageUsage(pid),
		res:   m.catalog.OpenResources(pid),
	}
}

func (m *Model) enterSelectedDir() {
	row := m.fileTable.SelectedRow()
	if row == nil {
		return
	}
	target := filepath.Join(m.cwd, row[len(row)-1])
	entries := m.browser.List(target)
	if entries == nil {
		return
	}
	m.cwd = target
	m.fileTable.SetRows(fileRows(entries))
	m.fileTable.SetCursor(0)
}

func (m *Model) popDir() {
	parent := filepath.Dir(m.cwd)
	if parent == m.cwd {
		return
	}
	m.cwd = parent
	m.fileTable.SetRows(fileRows(m.browser.List(m.cwd)))
	m.fileTable.SetCursor(0)
}

func (m *Model) resize() {
	w := m.width - 4
	h := m.height - 10
	if h < 4 {
		h = 4
	}
	m.procTable.SetWidth(w)
	m.procTable.SetHeight(h)
	m.fileTable.SetWidth(w)
	m.fileTable.SetHeight(h)
}

// RunTUI runs the dashboard until the user quits.
func RunTUI(cfg config.Config, store *sampler.Store, catalog *proctable.Catalog, browser *fileinfo.Browser, log zerolog.Logger) error {
	prog := tea.NewProgram(New(cfg, store, catalog, browser, log), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
