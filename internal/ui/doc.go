// Package ui provides the terminal user interface for the courier client.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. A single Model owns the view state and
// reads the application state tree through the Store interface. Domain work
// (order transitions, proof uploads, sign in) is delegated to collaborators
// passed in Options, so the package never talks to the network directly.
//
// # Package Structure
//
//   - ui.go: collaborator interfaces, Options and the Run entry point
//   - app.go: Model, message types, key dispatch and command helpers
//   - keys.go: key bindings and help sections
//   - theme.go: light and dark palettes plus per-status colors
//   - header.go: tab bar, offline banner, toast line, footer and intro
//   - orders_view.go, earnings_view.go, logs_view.go: main views
//   - proof_view.go: delivery proof screen with upload progress
//   - login_view.go: phone and code sign-in form
//
// # Event Flow
//
//  1. Run starts the program with tea.WithContext.
//  2. A tick pulls a fresh snapshot from the store every half second.
//  3. Key presses turn into commands that call the collaborators.
//  4. Each command reports back with an opResultMsg or uploadDoneMsg.
//  5. Toasts older than three seconds are cleared on the next snapshot.
//  6. Losing the session while signed in switches to the login view.
//
// # Key Bindings
//
//   - 1/2/3 or tab: orders, earnings and logs views
//   - j/k: move the selection
//   - a/x: accept or reject the selected order
//   - p: enter the pickup OTP
//   - d: open the proof screen for a picked up order
//   - K/J: reorder the queue
//   - o: toggle availability
//   - T: toggle theme
//   - L: sign out
//   - h or ?: help
//   - q or ctrl+c: quit
//
// # Usage Example
//
//	err := ui.Run(ctx, ui.Options{
//		Store:   store,
//		Orders:  ordersService,
//		Proof:   coordinator,
//		Picker:  picker,
//		Session: sessionManager,
//		Prefs:   prefsFile,
//		LogPath: cfg.LogFile,
//	})
package ui
