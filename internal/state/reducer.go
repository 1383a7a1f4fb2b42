package state

import "github.com/five82/courier/internal/orderstatus"

// Reduce returns the state that results from applying a to s. It is pure:
// no I/O, no clock reads. Unknown action types and payloads of the wrong type
// leave s unchanged.
func Reduce(s State, a Action) State {
	next, _ := apply(s, a)
	return next
}

func apply(s State, a Action) (State, bool) {
	switch a.Type {
	case ActionSetAuth:
		auth, ok := a.Payload.(Auth)
		if !ok {
			return s, false
		}
		s.Auth = auth
	case ActionSetProfile:
		profile, ok := a.Payload.(*RiderProfile)
		if !ok {
			return s, false
		}
		if profile != nil {
			dup := *profile
			profile = &dup
		}
		s.Rider = profile
	case ActionSetOrders:
		orders, ok := a.Payload.([]Order)
		if !ok {
			return s, false
		}
		s.Orders = renumber(orders)
	case ActionSetEarningsActivity:
		items, ok := a.Payload.([]EarningsActivity)
		if !ok {
			return s, false
		}
		s.Earnings.Activity = cloneActivity(items)
	case ActionSetEarningsSummary:
		summary, ok := a.Payload.(*EarningsSummary)
		if !ok {
			return s, false
		}
		if summary != nil {
			dup := *summary
			summary = &dup
		}
		s.Earnings.Summary = summary
	case ActionSetOnline:
		online, ok := a.Payload.(bool)
		if !ok {
			return s, false
		}
		s.Online = online
	case ActionSetOffline:
		offline, ok := a.Payload.(bool)
		if !ok {
			return s, false
		}
		s.Network = Network{IsOffline: offline}
	case ActionSetThemeMode:
		mode, ok := a.Payload.(ThemeMode)
		if !ok {
			return s, false
		}
		s.ThemeMode = mode
	case ActionShowToast:
		msg, ok := a.Payload.(string)
		if !ok {
			return s, false
		}
		s.Toast = &Toast{Message: msg}
	case ActionClearToast:
		s.Toast = nil
	default:
		return s, false
	}
	return s, true
}

// renumber copies orders, resolves statuses (unknown ones become PENDING)
// and assigns contiguous queue positions starting at 1.
func renumber(orders []Order) []Order {
	out := cloneOrders(orders)
	for i := range out {
		out[i].Status = orderstatus.Resolve(string(out[i].Status))
		out[i].QueuePosition = i + 1
	}
	return out
}
