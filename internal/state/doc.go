// Package state holds the rider client's single authoritative state tree.
//
// # Overview
//
// Every component that needs shared data reads it from a Store and every
// change goes through Store.Dispatch. The network monitor, the order poller,
// the proof uploader and the UI never touch the tree directly; they compute
// the next Action and dispatch it.
//
//	Writers:                          Readers:
//	┌──────────────────┐             ┌──────────────────┐
//	│ netmon.Monitor   │─SET_OFFLINE─│                  │
//	│ orders.Service   │─SET_ORDERS──│ store.Snapshot() │
//	│ session.Manager  │─SET_AUTH────│      ↓           │
//	│ proof.Coordinator│─SHOW_TOAST──│  render UI       │
//	└──────────────────┘   (mutex)   └──────────────────┘
//
// # Reducer
//
// Reduce is a pure function over (State, Action). The action catalog is
// closed:
//
//	SET_AUTH, SET_PROFILE, SET_ORDERS, SET_EARNINGS_ACTIVITY,
//	SET_EARNINGS_SUMMARY, SET_ONLINE, SET_OFFLINE, SET_THEME_MODE,
//	SHOW_TOAST, CLEAR_TOAST
//
// Unknown types and payloads of the wrong Go type are ignored; they never
// panic and never bump the store version.
//
// SET_ORDERS normalizes each order's status and reassigns QueuePosition so the
// list is always numbered 1..n in display order, whether it was fetched,
// reordered or filtered.
//
// # Concurrency Model
//
// Dispatch takes the write lock for the duration of one reducer application,
// so actions are applied one at a time in arrival order. Snapshot takes the
// read lock and returns a deep copy; callers may keep or mutate it freely.
//
// # Usage Example
//
//	store := state.NewStore(state.Initial())
//	store.Dispatch(state.SetOrders(orders))
//	store.Dispatch(state.ShowToast("Proof uploaded successfully."))
//
//	snap := store.Snapshot()
//	if snap.Network.IsOffline {
//		// disable network actions
//	}
package state
