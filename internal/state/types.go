package state

import "github.com/five82/courier/internal/orderstatus"

// Auth is the rider's session as seen by the UI.
type Auth struct {
	Token    string
	LoggedIn bool
}

// RiderProfile is the signed-in rider.
type RiderProfile struct {
	ID            string
	Name          string
	Phone         string
	VehicleNumber string
	Rating        float64
}

// OrderItem is one line of an order's contents.
type OrderItem struct {
	Name string
	Qty  int
}

// Order is an assigned delivery. QueuePosition is 1-based and contiguous
// across the order list; the reducer reassigns it on every SET_ORDERS.
type Order struct {
	ID            string
	Pickup        string
	Drop          string
	Status        orderstatus.Status
	QueuePosition int
	Earning       float64
	ETA           string
	Alert         string
	Items         []OrderItem
}

// EarningsSummary aggregates payouts over common windows.
type EarningsSummary struct {
	Today      float64
	Week       float64
	Month      float64
	Deliveries int
}

// EarningsActivity is a single ledger entry.
type EarningsActivity struct {
	ID          string
	OrderID     string
	Amount      float64
	Description string
	CreatedAt   string
}

// Earnings groups the summary and recent activity.
type Earnings struct {
	Summary  *EarningsSummary
	Activity []EarningsActivity
}

// Network carries the process-wide connectivity flag.
type Network struct {
	IsOffline bool
}

// ThemeMode selects the UI palette.
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// Toast is a transient notification.
type Toast struct {
	Message string
}

// State is the whole client state tree.
type State struct {
	Auth      Auth
	Rider     *RiderProfile
	Orders    []Order
	Earnings  Earnings
	Online    bool
	Network   Network
	ThemeMode ThemeMode
	Toast     *Toast
}

// Initial returns the state a fresh client starts with: rider available,
// connectivity assumed, light theme.
func Initial() State {
	return State{
		Online:    true,
		ThemeMode: ThemeLight,
	}
}

// FindOrder returns the order with id and whether it exists.
func (s State) FindOrder(id string) (Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return cloneOrder(o), true
		}
	}
	return Order{}, false
}

func (s State) clone() State {
	dup := s
	dup.Orders = cloneOrders(s.Orders)
	if s.Rider != nil {
		rider := *s.Rider
		dup.Rider = &rider
	}
	if s.Earnings.Summary != nil {
		summary := *s.Earnings.Summary
		dup.Earnings.Summary = &summary
	}
	dup.Earnings.Activity = cloneActivity(s.Earnings.Activity)
	if s.Toast != nil {
		toast := *s.Toast
		dup.Toast = &toast
	}
	return dup
}

func cloneOrder(o Order) Order {
	if o.Items != nil {
		items := make([]OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

func cloneOrders(orders []Order) []Order {
	if len(orders) == 0 {
		return nil
	}
	dup := make([]Order, len(orders))
	for i, o := range orders {
		dup[i] = cloneOrder(o)
	}
	return dup
}

func cloneActivity(items []EarningsActivity) []EarningsActivity {
	if len(items) == 0 {
		return nil
	}
	dup := make([]EarningsActivity, len(items))
	copy(dup, items)
	return dup
}
