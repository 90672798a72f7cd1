package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/rewear/internal/catalog"
	"github.com/five82/rewear/internal/logtail"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/prefs"
	"github.com/five82/rewear/internal/session"
	"github.com/five82/rewear/internal/swaps"
)

// View represents the current active view.
type View int

const (
	ViewBrowse View = iota
	ViewDetail
	ViewSwaps
	ViewLogs
	ViewModeration
	ViewLogin
	ViewNewListing
)

// viewUnchanged marks an operation that does not navigate on success.
const viewUnchanged View = -1

// tabOrder is the cycle followed by tab and shift+tab.
var tabOrder = []View{ViewBrowse, ViewSwaps, ViewLogs}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   *session.Session
	Catalog   *catalog.Catalog
	Swaps     *swaps.Negotiator
	Logger    *zap.Logger
	PollTick  time.Duration
	ThemeName string
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
}

// snapshots is one consistent read of every state component.
type snapshots struct {
	session session.Snapshot
	catalog catalog.Snapshot
	swaps   swaps.Snapshot
}

// flash is the footer line reporting the last operation.
type flash struct {
	text  string
	isErr bool
	at    time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	session   *session.Session
	catalog   *catalog.Catalog
	swaps     *swaps.Negotiator
	logger    *zap.Logger
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme        Theme
	currentView  View
	previousView View
	width        int
	height       int
	ready        bool
	showHelp     bool

	// Data state
	snap        snapshots
	lastUpdated time.Time
	busy        int
	spinner     spinner.Model
	flash       flash

	// Browse state
	selectedRow int
	showMine    bool
	searching   bool
	searchInput textinput.Model

	// Detail state
	picking bool
	pickRow int

	// Swaps state
	partition swapPartition
	swapRow   int

	// Moderation state
	pendingRow int

	// Log state
	logViewport viewport.Model
	logEntries  []logtail.Entry
	logFollow   bool

	// Forms
	registering  bool
	loginForm    form
	registerForm form
	listingForm  form
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	search := textinput.New()
	search.Placeholder = "Search listings..."
	search.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:          ctx,
		session:      opts.Session,
		catalog:      opts.Catalog,
		swaps:        opts.Swaps,
		logger:       logger.Named("ui"),
		prefs:        opts.Prefs,
		prefsPath:    prefsPath,
		logPath:      opts.LogPath,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(themeName),
		currentView:  ViewBrowse,
		previousView: ViewBrowse,
		spinner:      sp,
		searchInput:  search,
		logFollow:    true,
		loginForm:    newLoginForm(),
		registerForm: newRegisterForm(),
		listingForm:  newListingForm(),
	}
	m.snap = m.readSnapshots()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
		m.fetchSnapshotCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshots(snapshots(msg))
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg)

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Text entry owns the keyboard.
	switch {
	case m.searching:
		return m.handleSearchKey(msg)
	case m.currentView == ViewLogin:
		return m.handleLoginKey(msg)
	case m.currentView == ViewNewListing:
		return m.handleListingFormKey(msg)
	case m.currentView == ViewDetail && m.picking:
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(cycleView(m.currentView, 1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(cycleView(m.currentView, -1))

	case key.Matches(msg, m.keys.ViewBrowse):
		return m.switchView(ViewBrowse)

	case key.Matches(msg, m.keys.ViewSwaps):
		return m.switchView(ViewSwaps)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.ViewModeration):
		return m.switchView(ViewModeration)

	case key.Matches(msg, m.keys.Account):
		if m.snap.session.Authenticated {
			cmd := m.signOut()
			return m, cmd
		}
		return m.switchView(ViewLogin)

	case key.Matches(msg, m.keys.NewListing):
		return m.switchView(ViewNewListing)

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewDetail {
			m.catalog.ClearSelected()
			m.currentView = m.previousView
			m.refreshSnapshots()
			return m, nil
		}
		m.currentView = ViewBrowse
		return m, nil
	}

	switch m.currentView {
	case ViewBrowse:
		return m.handleBrowseKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewSwaps:
		return m.handleSwapsKey(msg)
	case ViewModeration:
		return m.handleModerationKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// switchView changes the active view and starts whatever load it needs.
func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if v != ViewDetail && m.currentView != ViewDetail {
		m.previousView = m.currentView
	}
	m.currentView = v

	switch v {
	case ViewSwaps:
		if token := m.snap.session.Token; token != "" {
			cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
				return m.swaps.FetchMine(ctx, token)
			})
			return m, cmd
		}
	case ViewModeration:
		if m.isAdmin() {
			token := m.snap.session.Token
			cmd := m.run("", viewUnchanged, func(ctx context.Context) error {
				return m.catalog.LoadPending(ctx, token)
			})
			return m, cmd
		}
	case ViewLogs:
		m.updateLogViewport()
		return m, m.fetchLogsCmd()
	case ViewLogin:
		m.registering = false
		m.loginForm = m.loginForm.reset()
		m.registerForm = m.registerForm.reset()
		return m, textinput.Blink
	case ViewNewListing:
		m.listingForm = m.listingForm.focusAt(0)
		return m, textinput.Blink
	}
	return m, nil
}

func cycleView(current View, delta int) View {
	for i, v := range tabOrder {
		if v == current {
			return tabOrder[(i+delta+len(tabOrder))%len(tabOrder)]
		}
	}
	return tabOrder[0]
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.fetchSnapshotCmd(), tickCmd(m.pollTick)}
	if m.currentView == ViewLogs && m.logFollow {
		cmds = append(cmds, m.fetchLogsCmd())
	}
	if m.flash.text != "" && time.Since(m.flash.at) > StatusFlashDuration {
		m.flash = flash{}
	}
	return m, tea.Batch(cmds...)
}

// handleOpDone records the outcome of a dispatched operation.
func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if m.busy > 0 {
		m.busy--
	}
	if msg.err != nil {
		m.flash = flash{text: marketplace.Message(msg.err), isErr: true, at: time.Now()}
		m.logger.Debug("operation failed", zap.String("op", msg.label), zap.Error(msg.err))
	} else {
		if msg.label != "" {
			m.flash = flash{text: msg.label, at: time.Now()}
		}
		if msg.next != viewUnchanged {
			m.currentView = msg.next
		}
		if msg.after != nil {
			msg.after(&m)
		}
	}
	m.refreshSnapshots()
	return m, nil
}

// quit saves preferences and stops the program.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.savePrefs()
	return m, tea.Quit
}

// savePrefs stores the theme, page size and filters. Failures are logged.
func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := m.prefs
	p.Theme = m.theme.Name
	if m.catalog != nil {
		snap := m.catalog.Snapshot()
		p.PageSize = snap.Page.Limit
		p.Filters = prefs.Filters{
			Category:  snap.Filters.Category,
			Size:      snap.Filters.Size,
			Condition: snap.Filters.Condition,
		}
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs", zap.Error(err))
		return
	}
	m.prefs = p
}

func (m Model) readSnapshots() snapshots {
	var s snapshots
	if m.session != nil {
		s.session = m.session.Snapshot()
	}
	if m.catalog != nil {
		s.catalog = m.catalog.Snapshot()
	}
	if m.swaps != nil {
		s.swaps = m.swaps.Snapshot()
	}
	return s
}

func (m *Model) refreshSnapshots() {
	m.applySnapshots(m.readSnapshots())
}

func (m *Model) applySnapshots(s snapshots) {
	m.snap = s
	m.lastUpdated = time.Now()
	m.selectedRow = clampRow(m.selectedRow, len(m.browseItems()))
	m.swapRow = clampRow(m.swapRow, len(m.partitionSwaps()))
	m.pendingRow = clampRow(m.pendingRow, len(m.snap.catalog.Pending))
	m.pickRow = clampRow(m.pickRow, len(m.offerableItems()))
}

func clampRow(row, count int) int {
	if count == 0 || row < 0 {
		return 0
	}
	if row >= count {
		return count - 1
	}
	return row
}

// moveRow applies a navigation key to row over count entries.
func (m Model) moveRow(msg tea.KeyMsg, row, count int) int {
	if count == 0 {
		return 0
	}
	half := max(1, (m.height-6)/2)
	switch {
	case key.Matches(msg, m.keys.Down):
		row++
	case key.Matches(msg, m.keys.Up):
		row--
	case key.Matches(msg, m.keys.Top):
		row = 0
	case key.Matches(msg, m.keys.Bottom):
		row = count - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		row += half
	case key.Matches(msg, m.keys.HalfPageUp):
		row -= half
	}
	return clampRow(row, count)
}

func isNavKey(msg tea.KeyMsg, k keyMap) bool {
	return key.Matches(msg, k.Up, k.Down, k.Top, k.Bottom, k.HalfPageUp, k.HalfPageDown)
}

func (m Model) viewer() *marketplace.User {
	return m.snap.session.User
}

func (m Model) isAdmin() bool {
	u := m.viewer()
	return u != nil && u.IsAdmin()
}

// requireLogin reports whether the session is signed in and flashes a hint
// when it is not.
func (m *Model) requireLogin(action string) bool {
	if m.snap.session.Authenticated && m.snap.session.User != nil {
		return true
	}
	m.flash = flash{text: "Sign in (a) to " + action, isErr: true, at: time.Now()}
	return false
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBrowse:
		return m.renderBrowse()
	case ViewDetail:
		return m.renderDetail()
	case ViewSwaps:
		return m.renderSwaps()
	case ViewModeration:
		return m.renderModeration()
	case ViewLogs:
		return m.renderLogs()
	case ViewLogin:
		return m.renderLogin()
	case ViewNewListing:
		return m.renderListingForm()
	default:
		return ""
	}
}

// contentHeight is the height left for the content box.
func (m Model) contentHeight() int {
	return max(3, m.height-3) // header, command bar, footer
}

// Messages

type tickMsg time.Time

type snapshotMsg snapshots

// opDoneMsg reports a finished operation. next is the view to show and
// after a model change to apply, both only on success.
type opDoneMsg struct {
	label string
	next  View
	after func(*Model)
	err   error
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshotCmd() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(m.readSnapshots())
	}
}

// run dispatches fn as a command and counts it as in flight until its
// opDoneMsg arrives.
func (m *Model) run(label string, next View, fn func(ctx context.Context) error) tea.Cmd {
	return m.runThen(label, next, nil, fn)
}

func (m *Model) runThen(label string, next View, after func(*Model), fn func(ctx context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{label: label, next: next, after: after, err: fn(ctx)}
	}
}

// followUp logs the failure of a secondary load that runs after an operation
// succeeded. The failure stays on the owning component's snapshot.
func (m *Model) followUp(op string, err error) {
	if err != nil {
		m.logger.Debug(op+" failed", zap.Error(err))
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
