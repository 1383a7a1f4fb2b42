package apierr

import "sync"

// Handlers holds the side-effect callbacks invoked for classified failures.
// Each slot holds one callback; the last registration wins and registering
// nil installs a no-op. The zero value is ready to use.
type Handlers struct {
	mu           sync.RWMutex
	unauthorized func()
	network      func(online bool)
	generic      func(*Error)
}

// SetUnauthorized registers the callback run on UNAUTHORIZED failures.
func (h *Handlers) SetUnauthorized(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unauthorized = fn
}

// SetNetworkStatus registers the callback told about transport reachability:
// false on NETWORK failures, true after any successful response.
func (h *Handlers) SetNetworkStatus(fn func(online bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.network = fn
}

// SetGeneric registers the callback run for FORBIDDEN, SERVER and GENERIC
// failures.
func (h *Handlers) SetGeneric(fn func(*Error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.generic = fn
}

// Handle invokes at most one handler for e based on its kind.
func (h *Handlers) Handle(e *Error) {
	if h == nil || e == nil {
		return
	}
	h.mu.RLock()
	unauthorized, network, generic := h.unauthorized, h.network, h.generic
	h.mu.RUnlock()

	switch e.Kind {
	case KindUnauthorized:
		if unauthorized != nil {
			unauthorized()
		}
	case KindNetwork:
		if network != nil {
			network(false)
		}
	default:
		if generic != nil {
			generic(e)
		}
	}
}

// ReportOnline tells the network handler a response arrived.
func (h *Handlers) ReportOnline() {
	if h == nil {
		return
	}
	h.mu.RLock()
	network := h.network
	h.mu.RUnlock()
	if network != nil {
		network(true)
	}
}
