package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/apierr"
	"github.com/five82/courier/internal/logtail"
	"github.com/five82/courier/internal/orderstatus"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/proof"
	"github.com/five82/courier/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewOrders View = iota
	ViewEarnings
	ViewLogs
	ViewProof
	ViewLogin
)

const (
	defaultTick  = 500 * time.Millisecond
	toastTTL     = 3 * time.Second
	logReadLimit = 500
)

// Operation names carried by opResultMsg.
const (
	opRefresh      = "refresh"
	opAccept       = "accept"
	opReject       = "reject"
	opPickup       = "pickup"
	opDeliver      = "deliver"
	opAvailability = "availability"
	opEarnings     = "earnings"
	opSelect       = "select"
	opRequestCode  = "request-code"
	opLogin        = "login"
	opLogout       = "logout"
	opPrefs        = "prefs"
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	store   Store
	orders  OrderActions
	proof   ProofFlow
	picker  Stager
	session Auth
	prefs   PrefsWriter
	logPath string
	tick    time.Duration
	now     func() time.Time

	keys  keyMap
	help  help.Model
	theme Theme

	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	showIntro   bool

	snapshot state.State
	selected int
	busy     string
	notice   string

	toastText  string
	toastSince time.Time

	// OTP prompt for pickup
	pickupFor   string
	pickupInput textinput.Model

	// Proof screen
	proofOrderID string
	proofFocus   int // 0 = path, 1 = otp
	pathInput    textinput.Model
	otpInput     textinput.Model
	bar          progress.Model
	uploading    bool

	// Login screen
	loginStep  int // 0 = phone, 1 = code
	phoneInput textinput.Model
	codeInput  textinput.Model

	// Logs
	logViewport viewport.Model
	logLevel    string
	logEntries  []logtail.Entry
}

// New creates a new Bubble Tea model.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		orders:      opts.Orders,
		proof:       opts.Proof,
		picker:      opts.Picker,
		session:     opts.Session,
		prefs:       opts.Prefs,
		logPath:     opts.LogPath,
		tick:        tick,
		now:         time.Now,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		currentView: ViewOrders,
		showIntro:   opts.ShowIntro,
		pickupInput: newCodeInput("Pickup OTP"),
		pathInput:   newInput("/path/to/proof.jpg", 512),
		otpInput:    newCodeInput("Delivery OTP"),
		phoneInput:  newInput("Phone number", 20),
		codeInput:   newCodeInput("Login code"),
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		logViewport: viewport.New(80, 20),
	}
	if opts.Store != nil {
		m.applySnapshot(opts.Store.Snapshot())
	}
	return m
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 40
	return in
}

func newCodeInput(placeholder string) textinput.Model {
	in := newInput(placeholder, 4)
	in.Width = 8
	return in
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.logViewport.Width = msg.Width
		m.logViewport.Height = maxInt(msg.Height-6, 3)
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.State(msg))
		return m, nil

	case opResultMsg:
		return m.handleResult(msg)

	case uploadDoneMsg:
		m.uploading = false
		if msg.err != nil && !errors.Is(msg.err, proof.ErrUploadCanceled) {
			m.notice = errorText(msg.err)
		}
		return m, nil

	case logsMsg:
		if msg.err != nil {
			m.notice = "Log unavailable: " + msg.err.Error()
			return m, nil
		}
		m.logEntries = msg.entries
		m.updateLogViewport()
		return m, nil
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
	if m.showIntro {
		return m.renderIntro()
	}
	return m.renderMain()
}

// applySnapshot stores a state tree and reacts to session and toast changes.
func (m *Model) applySnapshot(snap state.State) {
	m.snapshot = snap
	m.theme = ThemeFor(snap.ThemeMode)
	if m.selected >= len(snap.Orders) {
		m.selected = maxInt(len(snap.Orders)-1, 0)
	}

	if !snap.Auth.LoggedIn && m.session != nil && m.currentView != ViewLogin {
		if m.currentView == ViewProof && m.proof != nil {
			m.proof.Close()
		}
		m.currentView = ViewLogin
		m.loginStep = 0
		m.phoneInput.Focus()
	}
	if snap.Auth.LoggedIn && m.currentView == ViewLogin {
		m.currentView = ViewOrders
		m.phoneInput.Reset()
		m.codeInput.Reset()
	}

	switch {
	case snap.Toast == nil:
		m.toastText = ""
	case snap.Toast.Message != m.toastText:
		m.toastText = snap.Toast.Message
		m.toastSince = m.now()
	case m.now().Sub(m.toastSince) >= toastTTL:
		m.store.Dispatch(state.ClearToast())
		m.toastText = ""
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, readLogsCmd(m.logPath, m.logLevel))
	}
	return m, tea.Batch(cmds...)
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
	if m.showIntro {
		m.showIntro = false
		cmd := m.savePrefs(func(p *prefs.Prefs) { p.IntroCompleted = true })
		return m, cmd
	}
	if m.pickupFor != "" {
		return m.handlePickupKey(msg)
	}

	switch m.currentView {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewProof:
		return m.handleProofKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.ToggleTheme):
		next := NextMode(m.snapshot.ThemeMode)
		m.store.Dispatch(state.SetThemeMode(next))
		m.applySnapshot(m.store.Snapshot())
		cmd := m.savePrefs(func(p *prefs.Prefs) { p.ThemeMode = string(next) })
		return m, cmd
	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % 3)
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.ViewOrders):
		return m.switchView(ViewOrders)
	case key.Matches(msg, m.keys.ViewEarnings):
		return m.switchView(ViewEarnings)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)
	case key.Matches(msg, m.keys.ToggleOnline):
		online := !m.snapshot.Online
		cmd := m.run(opAvailability, func(ctx context.Context) error {
			return m.orders.SetAvailability(ctx, online)
		})
		return m, cmd
	case key.Matches(msg, m.keys.Logout):
		if m.session == nil {
			return m, nil
		}
		cmd := m.run(opLogout, m.session.Logout)
		return m, cmd
	}

	switch m.currentView {
	case ViewOrders:
		return m.handleOrdersKey(msg)
	case ViewEarnings:
		if key.Matches(msg, m.keys.Refresh) {
			cmd := m.run(opEarnings, m.orders.RefreshEarnings)
			return m, cmd
		}
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.proof != nil {
		m.proof.Close()
	}
	return m, tea.Quit
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	m.notice = ""
	switch v {
	case ViewEarnings:
		cmd := m.run(opEarnings, m.orders.RefreshEarnings)
		return m, cmd
	case ViewLogs:
		return m, readLogsCmd(m.logPath, m.logLevel)
	}
	return m, nil
}

// handleOrdersKey processes keyboard input for the orders list.
func (m Model) handleOrdersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) {
		cmd := m.run(opRefresh, m.orders.Refresh)
		return m, cmd
	}

	orders := m.snapshot.Orders
	if len(orders) == 0 {
		return m, nil
	}
	order := orders[m.selected]

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(orders)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		delta := 1
		if key.Matches(msg, m.keys.MoveUp) {
			delta = -1
		}
		if err := m.orders.Move(order.ID, delta); err != nil {
			m.notice = errorText(err)
			return m, nil
		}
		m.selected = clampInt(m.selected+delta, 0, len(orders)-1)
		return m, fetchSnapshotCmd(m.store)
	case key.Matches(msg, m.keys.Accept):
		cmd := m.run(opAccept, func(ctx context.Context) error {
			return m.orders.Accept(ctx, order.ID)
		})
		return m, cmd
	case key.Matches(msg, m.keys.Reject):
		cmd := m.run(opReject, func(ctx context.Context) error {
			return m.orders.Reject(ctx, order.ID)
		})
		return m, cmd
	case key.Matches(msg, m.keys.PickUp):
		if !orderstatus.CanTransition(string(order.Status), string(orderstatus.PickedUp)) {
			m.notice = "Accept the order before pickup."
			return m, nil
		}
		m.pickupFor = order.ID
		m.pickupInput.Reset()
		cmd := m.pickupInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Deliver):
		if !orderstatus.CanTransition(string(order.Status), string(orderstatus.Delivered)) {
			m.notice = "Pick up the order before delivery."
			return m, nil
		}
		return m.openProof(order.ID)
	}
	return m, nil
}

func (m Model) handlePickupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.pickupFor = ""
		m.pickupInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		id, otp := m.pickupFor, m.pickupInput.Value()
		cmd := m.run(opPickup, func(ctx context.Context) error {
			return m.orders.MarkPickedUp(ctx, id, otp)
		})
		return m, cmd
	}
	var cmd tea.Cmd
	m.pickupInput, cmd = m.pickupInput.Update(msg)
	return m, cmd
}

// handleResult applies the outcome of an asynchronous operation.
func (m Model) handleResult(msg opResultMsg) (tea.Model, tea.Cmd) {
	m.busy = ""
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		m.notice = errorText(msg.err)
		if msg.op == opPrefs {
			m.notice = "Could not save preferences: " + msg.err.Error()
		}
		return m, fetchSnapshotCmd(m.store)
	}

	m.notice = ""
	switch msg.op {
	case opPickup:
		m.pickupFor = ""
		m.pickupInput.Blur()
	case opDeliver:
		m.closeProof()
	case opRequestCode:
		m.loginStep = 1
		m.phoneInput.Blur()
		cmd := tea.Batch(m.codeInput.Focus(), fetchSnapshotCmd(m.store))
		return m, cmd
	}
	return m, fetchSnapshotCmd(m.store)
}

func (m Model) savePrefs(fn func(*prefs.Prefs)) tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	return m.run(opPrefs, func(context.Context) error { return m.prefs.Update(fn) })
}

// errorText renders err for the notice line, preferring classified API
// messages.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := apierr.As(err); ok {
		return apiErr.Message
	}
	var verr *proof.ValidationError
	if errors.As(err, &verr) {
		return verr.Title + ". " + verr.Reason
	}
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewOrders:
		return m.renderOrders()
	case ViewEarnings:
		return m.renderEarnings()
	case ViewLogs:
		return m.renderLogs()
	case ViewProof:
		return m.renderProof()
	case ViewLogin:
		return m.renderLogin()
	default:
		return ""
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.State

type opResultMsg struct {
	op  string
	err error
}

type uploadDoneMsg struct {
	err error
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

func fetchSnapshotCmd(store Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = op
	ctx := m.ctx
	return func() tea.Msg {
		return opResultMsg{op: op, err: fn(ctx)}
	}
}

func readLogsCmd(path, level string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, logReadLimit)
		if err != nil {
			return logsMsg{err: err}
		}
		return logsMsg{entries: logtail.ParseAll(lines, level)}
	}
}
