package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/orderstatus"
	"github.com/five82/courier/internal/rider"
	"github.com/five82/courier/internal/state"
)

// User-facing notices.
const (
	ToastRefreshFailed = "Unable to refresh orders."
	ToastOffline       = "You are offline. Connect to internet first."
	ToastGoOnline      = "Go online to accept orders."
	ToastProofMissing  = "Upload proof and enter valid OTP before completing delivery."
	ToastDelivered     = "Order marked as delivered."
)

// OTPLength is the number of digits in pickup and delivery codes.
const OTPLength = 4

var (
	ErrOffline           = errors.New("device is offline")
	ErrRiderOffline      = errors.New("rider is not accepting orders")
	ErrStale             = errors.New("response superseded by a newer refresh")
	ErrNotFound          = errors.New("order not found")
	ErrTransitionBlocked = errors.New("status change not allowed")
	ErrInvalidOTP        = errors.New("otp must be 4 digits")
	ErrProofMissing      = errors.New("delivery proof not uploaded")
)

// Backend is the slice of the rider API the service drives.
type Backend interface {
	FetchAssignedOrders(ctx context.Context) ([]state.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status orderstatus.Status) error
	VerifyPickupOTP(ctx context.Context, orderID, otp string) error
	VerifyDeliveryOTP(ctx context.Context, orderID, otp string) error
	UpdateAvailability(ctx context.Context, online bool) error
	FetchEarningsSummary(ctx context.Context) (*state.EarningsSummary, error)
	FetchEarningsActivity(ctx context.Context, query rider.ActivityQuery) ([]state.EarningsActivity, error)
}

// Store is the state container the service reads and writes.
type Store interface {
	Snapshot() state.State
	Dispatch(state.Action)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(s *Service) {
		if entry != nil {
			s.log = entry.WithField("component", "orders")
		}
	}
}

// WithDevOTP enables the development bypass: delivery completes locally when
// the entered code equals code and is rejected otherwise. Empty disables it.
func WithDevOTP(code string) Option {
	return func(s *Service) { s.devOTP = strings.TrimSpace(code) }
}

// WithProofGate makes CompleteDelivery require uploaded(orderID) to report
// true.
func WithProofGate(uploaded func(orderID string) bool) Option {
	return func(s *Service) { s.proofUploaded = uploaded }
}

// Service applies rider actions to orders: it guards each change with the
// status table, applies it optimistically, confirms it with the backend and
// rolls it back on failure.
type Service struct {
	backend       Backend
	store         Store
	log           *logrus.Entry
	devOTP        string
	proofUploaded func(orderID string) bool

	// mu serializes read-modify-write cycles on the order list. Every
	// publish takes a sequence number; a refresh only applies when no
	// later publish has happened since it was issued.
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// NewService builds a Service.
func NewService(backend Backend, store Store, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		store:   store,
		log:     logging.Discard().WithField("component", "orders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh fetches the assigned orders and publishes them. It fails fast with
// ErrOffline without a request, and drops a response with ErrStale when a
// later refresh, a local order change or Invalidate has been applied since
// it was issued.
func (s *Service) Refresh(ctx context.Context) error {
	if s.store.Snapshot().Network.IsOffline {
		return ErrOffline
	}
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	orders, err := s.backend.FetchAssignedOrders(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.log.WithError(err).Warn("order refresh failed")
		s.store.Dispatch(state.ShowToast(ToastRefreshFailed))
		return fmt.Errorf("refresh orders: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		s.log.WithField("seq", seq).WithField("applied", s.applied).Debug("dropping stale order list")
		return ErrStale
	}
	s.applied = seq
	s.store.Dispatch(state.SetOrders(orders))
	return nil
}

// Invalidate drops every refresh still in flight. The session calls it when
// the rider signs out so a late response cannot repopulate the list.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
}

// publishLocked writes a locally changed order list. Refreshes issued before
// it come back as ErrStale. s.mu must be held.
func (s *Service) publishLocked(orders []state.Order) {
	s.supersedeLocked()
	s.store.Dispatch(state.SetOrders(orders))
}

func (s *Service) supersedeLocked() {
	s.issued++
	s.applied = s.issued
}

// Accept moves an order to ACCEPTED. The rider must be online and available.
func (s *Service) Accept(ctx context.Context, orderID string) error {
	snap := s.store.Snapshot()
	if snap.Network.IsOffline {
		s.store.Dispatch(state.ShowToast(ToastOffline))
		return ErrOffline
	}
	if !snap.Online {
		s.store.Dispatch(state.ShowToast(ToastGoOnline))
		return ErrRiderOffline
	}
	return s.transition(ctx, orderID, orderstatus.Accepted, func(ctx context.Context) error {
		return s.backend.UpdateOrderStatus(ctx, orderID, orderstatus.Accepted)
	})
}

// MarkPickedUp verifies the pickup code and moves the order to PICKED_UP.
func (s *Service) MarkPickedUp(ctx context.Context, orderID, otp string) error {
	otp = strings.TrimSpace(otp)
	if !ValidOTP(otp) {
		return ErrInvalidOTP
	}
	if s.store.Snapshot().Network.IsOffline {
		s.store.Dispatch(state.ShowToast(ToastOffline))
		return ErrOffline
	}
	return s.transition(ctx, orderID, orderstatus.PickedUp, func(ctx context.Context) error {
		return s.backend.VerifyPickupOTP(ctx, orderID, otp)
	})
}

// CompleteDelivery verifies the customer's code and marks the order
// DELIVERED. With the development bypass enabled only the configured code is
// accepted and no verification request is sent.
func (s *Service) CompleteDelivery(ctx context.Context, orderID, otp string) error {
	otp = strings.TrimSpace(otp)
	if !ValidOTP(otp) {
		return ErrInvalidOTP
	}
	if s.store.Snapshot().Network.IsOffline {
		s.store.Dispatch(state.ShowToast(ToastOffline))
		return ErrOffline
	}
	if s.proofUploaded != nil && !s.proofUploaded(orderID) {
		s.store.Dispatch(state.ShowToast(ToastProofMissing))
		return ErrProofMissing
	}

	confirm := func(ctx context.Context) error {
		return s.backend.VerifyDeliveryOTP(ctx, orderID, otp)
	}
	if s.devOTP != "" {
		if otp != s.devOTP {
			return ErrInvalidOTP
		}
		confirm = nil
	}
	if err := s.transition(ctx, orderID, orderstatus.Delivered, confirm); err != nil {
		return err
	}
	s.store.Dispatch(state.ShowToast(ToastDelivered))
	return nil
}

// Reject drops the order from the rider's queue and tells the backend the
// rider declined it. The order is restored at its old position on failure.
func (s *Service) Reject(ctx context.Context, orderID string) error {
	if s.store.Snapshot().Network.IsOffline {
		s.store.Dispatch(state.ShowToast(ToastOffline))
		return ErrOffline
	}

	s.mu.Lock()
	orders := s.store.Snapshot().Orders
	idx := indexOf(orders, orderID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	removed := orders[idx]
	if !orderstatus.CanTransition(string(removed.Status), string(orderstatus.Cancelled)) {
		s.mu.Unlock()
		return fmt.Errorf("reject %s from %s: %w", orderID, removed.Status, ErrTransitionBlocked)
	}
	next := append(append([]state.Order{}, orders[:idx]...), orders[idx+1:]...)
	s.publishLocked(next)
	s.mu.Unlock()

	err := s.backend.UpdateOrderStatus(ctx, orderID, orderstatus.Cancelled)
	if err == nil {
		s.log.WithField("order_id", orderID).Info("order rejected")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.store.Snapshot().Orders
	if indexOf(current, orderID) < 0 {
		at := idx
		if at > len(current) {
			at = len(current)
		}
		restored := make([]state.Order, 0, len(current)+1)
		restored = append(restored, current[:at]...)
		restored = append(restored, removed)
		restored = append(restored, current[at:]...)
		s.publishLocked(restored)
	}
	s.log.WithError(err).WithField("order_id", orderID).Warn("reject failed, order restored")
	return fmt.Errorf("reject order %s: %w", orderID, err)
}

// Move shifts an order delta places in the queue, clamped to the list.
func (s *Service) Move(orderID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.store.Snapshot().Orders
	from := indexOf(orders, orderID)
	if from < 0 {
		return ErrNotFound
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(orders)-1 {
		to = len(orders) - 1
	}
	if to == from {
		return nil
	}
	moved := orders[from]
	orders = append(orders[:from], orders[from+1:]...)
	orders = append(orders[:to], append([]state.Order{moved}, orders[to:]...)...)
	s.publishLocked(orders)
	return nil
}

// transition applies next optimistically, runs confirm (when non-nil) and
// restores the previous status if confirm fails and the order still carries
// the optimistic status.
func (s *Service) transition(ctx context.Context, orderID string, next orderstatus.Status, confirm func(context.Context) error) error {
	log := s.log.WithField("order_id", orderID).WithField("to", next)

	s.mu.Lock()
	orders := s.store.Snapshot().Orders
	idx := indexOf(orders, orderID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	prev := orders[idx].Status
	if !orderstatus.CanTransition(string(prev), string(next)) {
		s.mu.Unlock()
		return fmt.Errorf("%s -> %s: %w", prev, next, ErrTransitionBlocked)
	}
	orders[idx].Status = next
	s.publishLocked(orders)
	s.mu.Unlock()

	if confirm == nil {
		log.Info("order status changed locally")
		return nil
	}
	err := confirm(ctx)
	if err == nil {
		s.mu.Lock()
		s.supersedeLocked()
		s.mu.Unlock()
		log.Info("order status changed")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.store.Snapshot().Orders
	if i := indexOf(current, orderID); i >= 0 && current[i].Status == next {
		current[i].Status = prev
		s.publishLocked(current)
		log.WithError(err).Warn("status change failed, rolled back")
	} else {
		log.WithError(err).Warn("status change failed, order changed meanwhile")
	}
	return fmt.Errorf("update order %s: %w", orderID, err)
}

// SetAvailability toggles whether the rider takes new orders. The flag flips
// immediately and reverts if the backend rejects it.
func (s *Service) SetAvailability(ctx context.Context, online bool) error {
	if s.store.Snapshot().Network.IsOffline {
		s.store.Dispatch(state.ShowToast(ToastOffline))
		return ErrOffline
	}
	prev := s.store.Snapshot().Online
	s.store.Dispatch(state.SetOnline(online))
	if err := s.backend.UpdateAvailability(ctx, online); err != nil {
		if s.store.Snapshot().Online == online {
			s.store.Dispatch(state.SetOnline(prev))
		}
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

// ValidOTP reports whether code is exactly OTPLength ASCII digits.
func ValidOTP(code string) bool {
	if len(code) != OTPLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TotalEarning sums the earning of every order.
func TotalEarning(orders []state.Order) float64 {
	var total float64
	for _, o := range orders {
		total += o.Earning
	}
	return total
}

func indexOf(orders []state.Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}
