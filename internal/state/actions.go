package state

// ActionType names an entry in the closed action catalog.
type ActionType string

const (
	ActionSetAuth             ActionType = "SET_AUTH"
	ActionSetProfile          ActionType = "SET_PROFILE"
	ActionSetOrders           ActionType = "SET_ORDERS"
	ActionSetEarningsActivity ActionType = "SET_EARNINGS_ACTIVITY"
	ActionSetEarningsSummary  ActionType = "SET_EARNINGS_SUMMARY"
	ActionSetOnline           ActionType = "SET_ONLINE"
	ActionSetOffline          ActionType = "SET_OFFLINE"
	ActionSetThemeMode        ActionType = "SET_THEME_MODE"
	ActionShowToast           ActionType = "SHOW_TOAST"
	ActionClearToast          ActionType = "CLEAR_TOAST"
)

// Action is a request to change the state tree. Payload's Go type depends on
// Type; the constructors below build well-formed actions.
type Action struct {
	Type    ActionType
	Payload any
}

func SetAuth(a Auth) Action { return Action{Type: ActionSetAuth, Payload: a} }

// SetProfile replaces the rider profile; nil clears it.
func SetProfile(p *RiderProfile) Action { return Action{Type: ActionSetProfile, Payload: p} }

func SetOrders(orders []Order) Action { return Action{Type: ActionSetOrders, Payload: orders} }

func SetEarningsActivity(items []EarningsActivity) Action {
	return Action{Type: ActionSetEarningsActivity, Payload: items}
}

func SetEarningsSummary(s *EarningsSummary) Action {
	return Action{Type: ActionSetEarningsSummary, Payload: s}
}

// SetOnline toggles the rider's availability for new assignments.
func SetOnline(online bool) Action { return Action{Type: ActionSetOnline, Payload: online} }

// SetOffline records device connectivity. Only the network monitor dispatches it.
func SetOffline(offline bool) Action { return Action{Type: ActionSetOffline, Payload: offline} }

func SetThemeMode(m ThemeMode) Action { return Action{Type: ActionSetThemeMode, Payload: m} }

func ShowToast(message string) Action { return Action{Type: ActionShowToast, Payload: message} }

func ClearToast() Action { return Action{Type: ActionClearToast} }
