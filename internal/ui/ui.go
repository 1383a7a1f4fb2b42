package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/proof"
	"github.com/five82/courier/internal/state"
)

// Store is the state container the UI reads and writes.
type Store interface {
	Snapshot() state.State
	Dispatch(state.Action)
	Version() uint64
}

// OrderActions are the rider operations on assigned orders.
type OrderActions interface {
	Refresh(ctx context.Context) error
	Accept(ctx context.Context, orderID string) error
	Reject(ctx context.Context, orderID string) error
	MarkPickedUp(ctx context.Context, orderID, otp string) error
	CompleteDelivery(ctx context.Context, orderID, otp string) error
	Move(orderID string, delta int) error
	SetAvailability(ctx context.Context, online bool) error
	RefreshEarnings(ctx context.Context) error
}

// ProofFlow is the delivery-proof upload session.
type ProofFlow interface {
	Session() proof.Session
	SelectAsset(ctx context.Context, src proof.Source) error
	CanUpload() bool
	StartUpload(ctx context.Context, order state.Order) error
	Retry(ctx context.Context, order state.Order) error
	CancelUpload()
	Close()
}

// Stager hands a local file path to the proof picker.
type Stager interface {
	Stage(path string)
}

// Auth signs the rider in and out.
type Auth interface {
	RequestCode(ctx context.Context, phone string) error
	Login(ctx context.Context, phone, otp string) error
	Logout(ctx context.Context) error
}

// PrefsWriter persists device preferences.
type PrefsWriter interface {
	Update(fn func(*prefs.Prefs)) error
}

// Options configures the UI.
type Options struct {
	Store     Store
	Orders    OrderActions
	Proof     ProofFlow
	Picker    Stager
	Session   Auth
	Prefs     PrefsWriter
	LogPath   string
	Tick      time.Duration // snapshot refresh; zero uses 500ms
	ShowIntro bool
}

// Run starts the Bubble Tea program and blocks until the rider quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil || opts.Orders == nil {
		return fmt.Errorf("ui requires a store and an orders service")
	}
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
