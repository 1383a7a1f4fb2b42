// Package session owns the rider's sign-in state: it restores a persisted
// token at startup, performs OTP login and clears everything when the backend
// rejects the token.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/rider"
	"github.com/five82/courier/internal/state"
)

// ToastExpired is shown when the backend rejects the session.
const ToastExpired = "Session expired. Please login again."

var (
	ErrPhoneRequired = errors.New("phone number required")
	ErrInvalidOTP    = errors.New("otp must be 4 digits")
)

// TokenStore persists the session token across runs.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
}

// API is the slice of the rider client used for authentication.
type API interface {
	SetToken(token string)
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, otp string) (rider.Session, error)
	FetchProfile(ctx context.Context) (*state.RiderProfile, error)
	Logout(ctx context.Context) error
}

// Store is the state container the manager writes.
type Store interface {
	Snapshot() state.State
	Dispatch(state.Action)
}

// Manager coordinates the token between the API client, the token store and
// the state tree.
type Manager struct {
	api    API
	tokens TokenStore
	store  Store
	log    *logrus.Entry
	now    func() time.Time
	// onReset runs after the local session is cleared.
	onReset []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(m *Manager) {
		if entry != nil {
			m.log = entry.WithField("component", "session")
		}
	}
}

// WithClock overrides the clock used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithResetHook registers fn to run whenever the session is cleared, after
// the order list has been emptied.
func WithResetHook(fn func()) Option {
	return func(m *Manager) {
		if fn != nil {
			m.onReset = append(m.onReset, fn)
		}
	}
}

// New builds a Manager.
func New(api API, tokens TokenStore, store Store, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		tokens: tokens,
		store:  store,
		log:    logging.Discard().WithField("component", "session"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore signs in with the persisted token when it has not expired. It
// reports whether a session was restored. A failed profile fetch does not
// undo the restore; an unauthorized response clears it through Clear.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	token, err := m.tokens.LoadToken()
	if err != nil {
		return false, fmt.Errorf("load token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	if Expired(token, m.now()) {
		m.log.Info("persisted token expired")
		if err := m.tokens.SaveToken(""); err != nil {
			m.log.WithError(err).Warn("clear expired token failed")
		}
		return false, nil
	}

	m.api.SetToken(token)
	m.store.Dispatch(state.SetAuth(state.Auth{Token: token, LoggedIn: true}))
	m.log.Info("session restored")

	profile, err := m.api.FetchProfile(ctx)
	if err != nil {
		m.log.WithError(err).Warn("profile fetch after restore failed")
		return true, nil
	}
	m.store.Dispatch(state.SetProfile(profile))
	return true, nil
}

// RequestCode asks the backend to send an OTP to phone.
func (m *Manager) RequestCode(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneRequired
	}
	if err := m.api.RequestOTP(ctx, phone); err != nil {
		return fmt.Errorf("request otp: %w", err)
	}
	return nil
}

// Login verifies otp for phone, persists the token and publishes the session
// and profile.
func (m *Manager) Login(ctx context.Context, phone, otp string) error {
	phone, otp = strings.TrimSpace(phone), strings.TrimSpace(otp)
	if phone == "" {
		return ErrPhoneRequired
	}
	if !validOTP(otp) {
		return ErrInvalidOTP
	}

	sess, err := m.api.VerifyOTP(ctx, phone, otp)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if err := m.tokens.SaveToken(sess.Token); err != nil {
		m.log.WithError(err).Warn("persist token failed")
	}
	m.api.SetToken(sess.Token)
	m.store.Dispatch(state.SetAuth(state.Auth{Token: sess.Token, LoggedIn: true}))
	m.log.Info("signed in")

	profile := sess.Profile
	if profile == nil {
		profile, err = m.api.FetchProfile(ctx)
		if err != nil {
			m.log.WithError(err).Warn("profile fetch after login failed")
			return nil
		}
	}
	m.store.Dispatch(state.SetProfile(profile))
	return nil
}

// Logout ends the session on the backend, best effort, then clears it
// locally without the expiry notice.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.api.Logout(ctx)
	if err != nil {
		m.log.WithError(err).Warn("backend logout failed")
	}
	m.reset()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Clear drops the session everywhere. It is registered as the unauthorized
// handler, so the expiry notice is shown once per signed-in session.
func (m *Manager) Clear() {
	wasLoggedIn := m.store.Snapshot().Auth.LoggedIn
	m.reset()
	if wasLoggedIn {
		m.log.Warn("session rejected by backend")
		m.store.Dispatch(state.ShowToast(ToastExpired))
	}
}

func (m *Manager) reset() {
	m.api.SetToken("")
	if err := m.tokens.SaveToken(""); err != nil {
		m.log.WithError(err).Warn("clear persisted token failed")
	}
	m.store.Dispatch(state.SetAuth(state.Auth{}))
	m.store.Dispatch(state.SetProfile(nil))
	m.store.Dispatch(state.SetOrders(nil))
	for _, fn := range m.onReset {
		fn()
	}
}

// Expired reports whether token is a JWT whose exp claim is at or before now.
// Tokens that are not JWTs, or carry no exp claim, never expire locally.
func Expired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

func validOTP(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
