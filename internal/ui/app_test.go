package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/orderstatus"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/proof"
	"github.com/five82/courier/internal/state"
)

type fakeOrders struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeOrders) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeOrders) Refresh(ctx context.Context) error { return f.record("refresh") }
func (f *fakeOrders) Accept(ctx context.Context, id string) error {
	return f.record("accept %s", id)
}
func (f *fakeOrders) Reject(ctx context.Context, id string) error {
	return f.record("reject %s", id)
}
func (f *fakeOrders) MarkPickedUp(ctx context.Context, id, otp string) error {
	return f.record("pickup %s %s", id, otp)
}
func (f *fakeOrders) CompleteDelivery(ctx context.Context, id, otp string) error {
	return f.record("deliver %s %s", id, otp)
}
func (f *fakeOrders) Move(id string, delta int) error { return f.record("move %s %d", id, delta) }
func (f *fakeOrders) SetAvailability(ctx context.Context, online bool) error {
	return f.record("online %t", online)
}
func (f *fakeOrders) RefreshEarnings(ctx context.Context) error { return f.record("earnings") }

type fakeProof struct {
	session  proof.Session
	calls    []string
	canceled bool
}

func (f *fakeProof) Session() proof.Session { return f.session }
func (f *fakeProof) SelectAsset(ctx context.Context, src proof.Source) error {
	f.calls = append(f.calls, "select "+src.String())
	f.session = proof.Session{Asset: &proof.Asset{FileName: "p.jpg", MimeType: "image/jpeg"}, Phase: proof.PhaseSelected}
	return nil
}
func (f *fakeProof) CanUpload() bool { return f.session.Phase == proof.PhaseSelected }
func (f *fakeProof) StartUpload(ctx context.Context, o state.Order) error {
	f.calls = append(f.calls, "upload "+o.ID)
	f.session.Phase = proof.PhaseComplete
	f.session.Progress = 100
	return nil
}
func (f *fakeProof) Retry(ctx context.Context, o state.Order) error {
	f.calls = append(f.calls, "retry "+o.ID)
	return proof.ErrNotRetryable
}
func (f *fakeProof) CancelUpload() { f.canceled = true }
func (f *fakeProof) Close() {
	f.calls = append(f.calls, "close")
	f.session = proof.Session{Phase: proof.PhaseIdle}
}

type fakeStager struct{ path string }

func (f *fakeStager) Stage(path string) { f.path = path }

type fakeAuth struct{ calls []string }

func (f *fakeAuth) RequestCode(ctx context.Context, phone string) error {
	f.calls = append(f.calls, "code "+phone)
	return nil
}
func (f *fakeAuth) Login(ctx context.Context, phone, otp string) error {
	f.calls = append(f.calls, "login "+phone+" "+otp)
	return nil
}
func (f *fakeAuth) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	return nil
}

type memPrefs struct{ p prefs.Prefs }

func (m *memPrefs) Update(fn func(*prefs.Prefs)) error {
	fn(&m.p)
	return nil
}

type harness struct {
	store  *state.Store
	orders *fakeOrders
	proof  *fakeProof
	picker *fakeStager
	auth   *fakeAuth
	prefs  *memPrefs
}

func newHarness(t *testing.T, loggedIn bool, orders ...state.Order) (Model, *harness) {
	t.Helper()
	h := &harness{
		store:  state.NewStore(state.Initial()),
		orders: &fakeOrders{},
		proof:  &fakeProof{session: proof.Session{Phase: proof.PhaseIdle}},
		picker: &fakeStager{},
		auth:   &fakeAuth{},
		prefs:  &memPrefs{},
	}
	if loggedIn {
		h.store.Dispatch(state.SetAuth(state.Auth{Token: "t", LoggedIn: true}))
	}
	h.store.Dispatch(state.SetOrders(orders))
	m := New(context.Background(), Options{
		Store:   h.store,
		Orders:  h.orders,
		Proof:   h.proof,
		Picker:  h.picker,
		Session: h.auth,
		Prefs:   h.prefs,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), h
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and discards any command, such as cursor blinks.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// do sends msg and runs the resulting command, returning its message.
func do(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	model := next.(Model)
	if cmd == nil {
		return model, nil
	}
	return model, cmd()
}

// settle feeds an operation result back into the model.
func settle(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	if msg == nil {
		return m
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func order(id string, status orderstatus.Status) state.Order {
	return state.Order{ID: id, Pickup: "Store " + id, Drop: "Home " + id, Status: status, Earning: 40}
}

func TestOrdersKeys_AcceptRejectAndMove(t *testing.T) {
	m, h := newHarness(t, true, order("o1", orderstatus.Assigned), order("o2", orderstatus.Assigned))

	m, msg := do(t, m, runes("a"))
	if res, ok := msg.(opResultMsg); !ok || res.op != opAccept || res.err != nil {
		t.Fatalf("accept produced %#v", msg)
	}
	m = settle(t, m, msg)

	m = press(t, m, runes("j"))
	if m.selected != 1 {
		t.Fatalf("selected = %d after j, want 1", m.selected)
	}
	m, msg = do(t, m, runes("x"))
	m = settle(t, m, msg)
	m = press(t, m, runes("K"))

	want := []string{"accept o1", "reject o2", "move o2 -1"}
	if strings.Join(h.orders.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", h.orders.calls, want)
	}
	if m.selected != 0 {
		t.Fatalf("selected = %d after move up, want 0", m.selected)
	}
}

func TestOrdersKeys_PickupPrompt(t *testing.T) {
	m, h := newHarness(t, true, order("o1", orderstatus.Accepted))

	m = press(t, m, runes("p"))
	if m.pickupFor != "o1" {
		t.Fatalf("pickup prompt not opened: %q", m.pickupFor)
	}
	m = press(t, m, runes("4321"))
	m, msg := do(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, msg)

	if len(h.orders.calls) != 1 || h.orders.calls[0] != "pickup o1 4321" {
		t.Fatalf("calls = %v", h.orders.calls)
	}
	if m.pickupFor != "" {
		t.Fatal("prompt still open after successful pickup")
	}
}

func TestOrdersKeys_PickupBlockedBeforeAccept(t *testing.T) {
	m, h := newHarness(t, true, order("o1", orderstatus.Assigned))
	m = press(t, m, runes("p"))
	if m.pickupFor != "" || m.notice == "" {
		t.Fatalf("pickup prompt opened for an unaccepted order (notice %q)", m.notice)
	}
	m = press(t, m, runes("d"))
	if m.currentView != ViewOrders {
		t.Fatal("proof screen opened for an order not picked up")
	}
	if len(h.orders.calls) != 0 {
		t.Fatalf("unexpected calls %v", h.orders.calls)
	}
}

func TestProofScreen_SelectUploadAndComplete(t *testing.T) {
	m, h := newHarness(t, true, order("o1", orderstatus.PickedUp))

	m = press(t, m, runes("d"))
	if m.currentView != ViewProof || m.proofOrderID != "o1" {
		t.Fatalf("view = %v, order = %q", m.currentView, m.proofOrderID)
	}
	m = press(t, m, runes("/tmp/p.jpg"))
	m, msg := do(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, msg)
	if h.picker.path != "/tmp/p.jpg" {
		t.Fatalf("staged path = %q", h.picker.path)
	}

	m, msg = do(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if !m.uploading {
		t.Fatal("uploading flag not set")
	}
	m = settle(t, m, msg)
	if m.uploading {
		t.Fatal("uploading flag not cleared")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, runes("9876"))
	m, msg = do(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, msg)

	if got := strings.Join(h.proof.calls, ","); got != "close,select gallery,upload o1,close" {
		t.Fatalf("proof calls = %s", got)
	}
	if len(h.orders.calls) != 1 || h.orders.calls[0] != "deliver o1 9876" {
		t.Fatalf("order calls = %v", h.orders.calls)
	}
	if m.currentView != ViewOrders {
		t.Fatalf("view = %v after delivery, want orders", m.currentView)
	}
}

func TestProofScreen_RetryErrorAndCancel(t *testing.T) {
	m, h := newHarness(t, true, order("o1", orderstatus.PickedUp))
	m = press(t, m, runes("d"))

	m, msg := do(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m = settle(t, m, msg)
	if m.notice != "No failed upload to retry" {
		t.Fatalf("notice = %q", m.notice)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if !h.proof.canceled {
		t.Fatal("CancelUpload not called")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if m.uploading || m.notice != "Select a proof image first." {
		t.Fatalf("upload without asset: uploading=%t notice=%q", m.uploading, m.notice)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.currentView != ViewOrders {
		t.Fatal("esc did not leave the proof screen")
	}
}

func TestToastClearsAfterTTL(t *testing.T) {
	m, h := newHarness(t, true)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	h.store.Dispatch(state.ShowToast("Order marked as delivered."))
	m = settle(t, m, snapshotMsg(h.store.Snapshot()))
	if view := m.View(); !strings.Contains(view, "Order marked as delivered.") {
		t.Fatal("toast not rendered")
	}

	now = now.Add(time.Second)
	m = settle(t, m, snapshotMsg(h.store.Snapshot()))
	if h.store.Snapshot().Toast == nil {
		t.Fatal("toast cleared too early")
	}

	now = now.Add(toastTTL)
	settle(t, m, snapshotMsg(h.store.Snapshot()))
	if h.store.Snapshot().Toast != nil {
		t.Fatal("toast not cleared after TTL")
	}
}

func TestThemeToggleAndAvailability(t *testing.T) {
	m, h := newHarness(t, true)

	m, msg := do(t, m, runes("T"))
	m = settle(t, m, msg)
	if h.store.Snapshot().ThemeMode != state.ThemeDark || m.theme.Name != "dark" {
		t.Fatal("theme not toggled")
	}
	if h.prefs.p.ThemeMode != "dark" {
		t.Fatalf("persisted theme = %q", h.prefs.p.ThemeMode)
	}

	_, msg = do(t, m, runes("o"))
	if res, ok := msg.(opResultMsg); !ok || res.op != opAvailability {
		t.Fatalf("availability produced %#v", msg)
	}
	if h.orders.calls[0] != "online false" {
		t.Fatalf("calls = %v", h.orders.calls)
	}
}

func TestLoginFlow(t *testing.T) {
	m, h := newHarness(t, false)
	if m.currentView != ViewLogin {
		t.Fatalf("view = %v, want login", m.currentView)
	}

	m = press(t, m, runes("9999"))
	m, msg := do(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, msg)
	if m.loginStep != 1 {
		t.Fatal("code step not shown after requesting a code")
	}
	m = press(t, m, runes("4321"))
	_, msg = do(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if res, ok := msg.(opResultMsg); !ok || res.op != opLogin {
		t.Fatalf("login produced %#v", msg)
	}
	if got := strings.Join(h.auth.calls, ","); got != "code 9999,login 9999 4321" {
		t.Fatalf("auth calls = %s", got)
	}

	h.store.Dispatch(state.SetAuth(state.Auth{Token: "t", LoggedIn: true}))
	m = settle(t, m, snapshotMsg(h.store.Snapshot()))
	if m.currentView != ViewOrders {
		t.Fatalf("view = %v after sign in, want orders", m.currentView)
	}
}

func TestIntroDismissPersists(t *testing.T) {
	h := &harness{store: state.NewStore(state.Initial()), orders: &fakeOrders{}, prefs: &memPrefs{}}
	m := New(context.Background(), Options{Store: h.store, Orders: h.orders, Prefs: h.prefs, ShowIntro: true})
	m = settle(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(m.View(), "Welcome to courier") {
		t.Fatal("intro not shown")
	}
	m, msg := do(t, m, runes("x"))
	m = settle(t, m, msg)
	if m.showIntro || !h.prefs.p.IntroCompleted {
		t.Fatal("intro not dismissed and persisted")
	}
	if len(h.orders.calls) != 0 {
		t.Fatal("dismiss key reached the orders view")
	}
}

func TestQuitClosesProof(t *testing.T) {
	m, h := newHarness(t, true)
	_, msg := do(t, m, runes("q"))
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Fatalf("q produced %#v, want QuitMsg", msg)
	}
	if len(h.proof.calls) == 0 || h.proof.calls[len(h.proof.calls)-1] != "close" {
		t.Fatal("quit did not close the proof flow")
	}
}

func TestLogsView_ReadsAndFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courier.log")
	content := strings.Join([]string{
		`time="2026-10-19 09:00:00" level=debug msg=noisy component=netmon`,
		`time="2026-10-19 09:00:01" level=warning msg="order poll failed" component=poller failures=2`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, _ := newHarness(t, true)
	m.logPath = path

	m, msg := do(t, m, runes("3"))
	m = settle(t, m, msg)
	if m.currentView != ViewLogs || len(m.logEntries) != 2 {
		t.Fatalf("view = %v, entries = %d", m.currentView, len(m.logEntries))
	}

	m, msg = do(t, m, runes("f"))
	m = settle(t, m, msg)
	m, msg = do(t, m, runes("f"))
	m = settle(t, m, msg)
	if m.logLevel != "warning" || len(m.logEntries) != 1 {
		t.Fatalf("level = %q, entries = %d", m.logLevel, len(m.logEntries))
	}
	if view := m.View(); !strings.Contains(view, "order poll failed") || !strings.Contains(view, "failures=2") {
		t.Fatal("log entry not rendered")
	}
}

func TestOfflineBannerRendered(t *testing.T) {
	m, h := newHarness(t, true, order("o1", orderstatus.Assigned))
	h.store.Dispatch(state.SetOffline(true))
	m = settle(t, m, snapshotMsg(h.store.Snapshot()))
	view := m.View()
	if !strings.Contains(view, offlineBanner) || !strings.Contains(view, "Store o1") {
		t.Fatal("offline banner or order row missing")
	}
}
