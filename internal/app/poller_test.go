package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/five82/courier/internal/orders"
	"github.com/five82/courier/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeRefresher struct {
	calls int
	errs  []error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func signedInStore() *state.Store {
	store := state.NewStore(state.Initial())
	store.Dispatch(state.SetAuth(state.Auth{Token: "t", LoggedIn: true}))
	return store
}

func TestPollerTick_SkipsWhenLoggedOutOrOffline(t *testing.T) {
	refresher := &fakeRefresher{}
	store := state.NewStore(state.Initial())
	p := NewPoller(refresher, store, 2*time.Second, nil)

	if got := p.tick(context.Background()); got != 2*time.Second {
		t.Fatalf("tick while logged out = %v", got)
	}
	store.Dispatch(state.SetAuth(state.Auth{Token: "t", LoggedIn: true}))
	store.Dispatch(state.SetOffline(true))
	p.tick(context.Background())
	if refresher.calls != 0 {
		t.Fatalf("Refresh called %d times, want 0", refresher.calls)
	}
}

func TestPollerTick_BacksOffAndResets(t *testing.T) {
	boom := errors.New("boom")
	refresher := &fakeRefresher{errs: []error{boom, boom, orders.ErrStale, boom, nil}}
	p := NewPoller(refresher, signedInStore(), 2*time.Second, nil)

	want := []time.Duration{4 * time.Second, 8 * time.Second, 2 * time.Second, 4 * time.Second, 2 * time.Second}
	for i, w := range want {
		if got := p.tick(context.Background()); got != w {
			t.Fatalf("tick %d = %v, want %v", i, got, w)
		}
	}
	if refresher.calls != len(want) {
		t.Fatalf("Refresh calls = %d, want %d", refresher.calls, len(want))
	}
}

func TestPollerTick_OfflineAndCancelDoNotCountAsFailures(t *testing.T) {
	refresher := &fakeRefresher{errs: []error{orders.ErrOffline, context.Canceled}}
	p := NewPoller(refresher, signedInStore(), time.Second, nil)
	for i := 0; i < 2; i++ {
		if got := p.tick(context.Background()); got != time.Second {
			t.Fatalf("tick %d = %v, want base interval", i, got)
		}
	}
}

func TestPollerRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	refresher := &fakeRefresher{}
	p := NewPoller(refresher, signedInStore(), time.Hour, nil)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
