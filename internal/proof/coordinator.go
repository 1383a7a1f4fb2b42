package proof

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/orderstatus"
	"github.com/five82/courier/internal/state"
)

// Phase is the upload session's lifecycle stage.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseSelected  Phase = "SELECTED"
	PhaseUploading Phase = "UPLOADING"
	PhaseCanceled  Phase = "CANCELED"
	PhaseComplete  Phase = "COMPLETE"
	PhaseFailed    Phase = "FAILED"
)

const (
	toastUploaded     = "Proof uploaded successfully."
	toastUploadFailed = "Could not upload proof. Please retry."
)

var (
	ErrOffline        = errors.New("connect to internet to upload proof")
	ErrNoAsset        = errors.New("capture or select a delivery proof image first")
	ErrUploadInFlight = errors.New("upload already in progress")
	ErrUploadComplete = errors.New("proof already uploaded")
	ErrNotDeliverable = errors.New("order is not ready for delivery completion")
	ErrNotRetryable   = errors.New("no failed upload to retry")
	ErrUploadCanceled = errors.New("upload canceled")
)

// ProgressFunc receives cumulative byte counts from the transport.
type ProgressFunc func(loaded, total int64)

// Uploader sends a proof image for an order. Implementations must return
// promptly with ctx.Err() once ctx is cancelled.
type Uploader interface {
	UploadProof(ctx context.Context, orderID string, asset Asset, progress ProgressFunc) error
}

// Store is the slice of state.Store the coordinator needs.
type Store interface {
	Snapshot() state.State
	Dispatch(state.Action)
}

// Session is a point-in-time view of an upload session.
type Session struct {
	Asset    *Asset
	Progress int
	Phase    Phase
	// OrderID is the order the latest attempt uploaded for. Empty until an
	// upload starts.
	OrderID string
}

// Coordinator drives one delivery-proof flow: select, upload, cancel, retry.
// At most one upload is in flight at a time.
type Coordinator struct {
	store    Store
	picker   Picker
	uploader Uploader
	log      *logrus.Entry

	mu      sync.Mutex
	session Session
	attempt uint64
	cancel  context.CancelFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Coordinator) {
		if entry != nil {
			c.log = entry
		}
	}
}

// NewCoordinator returns a coordinator with an idle session.
func NewCoordinator(store Store, picker Picker, uploader Uploader, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		picker:   picker,
		uploader: uploader,
		log:      logging.Discard(),
		session:  Session{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "proof")
	return c
}

// Session returns a copy of the current session.
func (c *Coordinator) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Session {
	snap := c.session
	if c.session.Asset != nil {
		asset := *c.session.Asset
		snap.Asset = &asset
	}
	return snap
}

// SelectAsset asks for the capability behind src, picks an asset and
// validates it. Any failure leaves the session unchanged.
func (c *Coordinator) SelectAsset(ctx context.Context, src Source) error {
	if c.uploading() {
		return ErrUploadInFlight
	}

	granted, err := c.picker.RequestPermission(ctx, src)
	if err != nil {
		return fmt.Errorf("request %s permission: %w", src, err)
	}
	if !granted {
		return fmt.Errorf("%s: %w", src, ErrPermissionDenied)
	}

	asset, err := c.picker.Pick(ctx, src)
	if err != nil {
		return err
	}
	if err := Validate(asset); err != nil {
		c.log.WithField("mime", asset.MimeType).WithField("size", asset.SizeBytes).Info("proof asset rejected")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Phase == PhaseUploading {
		return ErrUploadInFlight
	}
	c.session = Session{Asset: &asset, Progress: 0, Phase: PhaseSelected}
	return nil
}

// CanUpload reports whether the upload control should be enabled: online,
// with an asset selected and no attempt in flight. A COMPLETE session is not
// uploadable again; selecting a new asset or Close reopens it.
func (c *Coordinator) CanUpload() bool {
	offline := c.store.Snapshot().Network.IsOffline
	c.mu.Lock()
	defer c.mu.Unlock()
	return !offline &&
		c.session.Asset != nil &&
		c.session.Phase != PhaseUploading &&
		c.session.Phase != PhaseComplete
}

// Uploaded reports whether the current session finished uploading proof for
// orderID.
func (c *Coordinator) Uploaded(orderID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Phase == PhaseComplete && orderID != "" && c.session.OrderID == orderID
}

// StartUpload uploads the selected asset as proof for order and blocks until
// the attempt finishes. Guard failures return before any network call.
// A cancelled attempt returns ErrUploadCanceled.
func (c *Coordinator) StartUpload(ctx context.Context, order state.Order) error {
	return c.start(ctx, order, false)
}

// Retry re-sends the same asset after a failed attempt.
func (c *Coordinator) Retry(ctx context.Context, order state.Order) error {
	return c.start(ctx, order, true)
}

func (c *Coordinator) start(ctx context.Context, order state.Order, retry bool) error {
	offline := c.store.Snapshot().Network.IsOffline

	c.mu.Lock()
	if err := c.guardLocked(order, offline, retry); err != nil {
		c.mu.Unlock()
		return err
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	c.attempt++
	id := c.attempt
	c.cancel = cancel
	c.session.Phase = PhaseUploading
	c.session.Progress = 0
	c.session.OrderID = order.ID
	asset := *c.session.Asset
	c.mu.Unlock()
	defer cancel()

	log := c.log.WithField("order_id", order.ID).WithField("attempt", id)
	log.Info("proof upload started")

	err := c.uploader.UploadProof(attemptCtx, order.ID, asset, func(loaded, total int64) {
		c.reportProgress(id, loaded, total)
	})
	return c.finish(id, err, log)
}

func (c *Coordinator) guardLocked(order state.Order, offline, retry bool) error {
	switch {
	case offline:
		return ErrOffline
	case c.session.Asset == nil:
		return ErrNoAsset
	case c.session.Phase == PhaseUploading:
		return ErrUploadInFlight
	case retry && c.session.Phase != PhaseFailed:
		return ErrNotRetryable
	case c.session.Phase == PhaseComplete:
		return ErrUploadComplete
	case !orderstatus.CanTransition(string(order.Status), string(orderstatus.Delivered)):
		return ErrNotDeliverable
	}
	return nil
}

func (c *Coordinator) reportProgress(id uint64, loaded, total int64) {
	if total <= 0 {
		return
	}
	percent := int(math.Round(float64(loaded) / float64(total) * 100))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.attempt || c.session.Phase != PhaseUploading {
		return
	}
	c.session.Progress = percent
}

func (c *Coordinator) finish(id uint64, err error, log *logrus.Entry) error {
	c.mu.Lock()
	if id != c.attempt || c.session.Phase != PhaseUploading {
		// CancelUpload already moved the session on.
		c.mu.Unlock()
		log.Info("proof upload canceled")
		return ErrUploadCanceled
	}
	c.cancel = nil

	switch {
	case err == nil:
		c.session.Progress = 100
		c.session.Phase = PhaseComplete
		c.mu.Unlock()
		log.Info("proof upload complete")
		c.store.Dispatch(state.ShowToast(toastUploaded))
		return nil
	case errors.Is(err, context.Canceled):
		c.session.Progress = 0
		c.session.Phase = PhaseCanceled
		c.mu.Unlock()
		log.Info("proof upload canceled by owner")
		return ErrUploadCanceled
	default:
		c.session.Phase = PhaseFailed
		c.mu.Unlock()
		log.WithError(err).Warn("proof upload failed")
		c.store.Dispatch(state.ShowToast(toastUploadFailed))
		return fmt.Errorf("upload proof: %w", err)
	}
}

// CancelUpload signals the in-flight attempt to stop. It is a no-op unless an
// upload is running.
func (c *Coordinator) CancelUpload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Phase != PhaseUploading {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.session.Progress = 0
	c.session.Phase = PhaseCanceled
}

// Close ends the flow: any in-flight attempt is cancelled and the session
// returns to idle.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.attempt++
	c.session = Session{Phase: PhaseIdle}
}

func (c *Coordinator) uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Phase == PhaseUploading
}
