// Package app is courier's composition root.
//
// Build wires the object graph once:
//
//	config ──> logging (file)       prefs.File ──> state.Store (theme)
//	                │
//	apierr.Handlers ├─ unauthorized ──> session.Manager.Clear
//	                ├─ network      ──> netmon.Monitor.Observe
//	                └─ generic      ──> toast
//	rider.Client (handlers) ──> netmon prober, session, orders, proof uploads
//
// Run restores the persisted session, starts the network monitor, then runs
// the order poller and the TUI under one errgroup. Quitting the TUI cancels
// the poller; cancelling the parent context ends both.
//
// The poller refreshes orders every poll_interval while the rider is signed
// in and the device is online. Consecutive failures double the delay up to
// 30 seconds; a successful or stale refresh resets it.
//
// Login and Logout back the `courier login` and `courier logout` commands.
// They share Build but start nothing in the background.
package app
