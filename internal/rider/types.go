package rider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/five82/courier/internal/orderstatus"
	"github.com/five82/courier/internal/state"
)

// flexString decodes a JSON string or number into a string. Backends send
// order and rider IDs either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat decodes a JSON number or numeric string. Unparseable strings
// decode as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// listOf decodes either a bare JSON array or an {"items": [...]} object.
type listOf[T any] []T

func (l *listOf[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var wrapped struct {
		Items []T `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Items
	return nil
}

// OrderPayload mirrors an order as returned by the orders endpoints.
type OrderPayload struct {
	ID      flexString         `json:"id"`
	Pickup  string             `json:"pickup"`
	Drop    string             `json:"drop"`
	Status  string             `json:"status"`
	Earning flexFloat          `json:"earning"`
	Payout  flexFloat          `json:"payout"`
	ETA     flexString         `json:"eta"`
	Alert   string             `json:"alert"`
	Items   []OrderItemPayload `json:"items"`
}

// OrderItemPayload is one line of an order.
type OrderItemPayload struct {
	Name string    `json:"name"`
	Qty  flexFloat `json:"qty"`
}

// ToOrder converts the payload into the store's order shape. Unknown statuses
// become PENDING; a zero earning falls back to the payout.
func (p OrderPayload) ToOrder() state.Order {
	earning := float64(p.Earning)
	if earning == 0 {
		earning = float64(p.Payout)
	}
	order := state.Order{
		ID:      string(p.ID),
		Pickup:  p.Pickup,
		Drop:    p.Drop,
		Status:  orderstatus.Resolve(p.Status),
		Earning: earning,
		ETA:     string(p.ETA),
		Alert:   p.Alert,
	}
	for _, item := range p.Items {
		order.Items = append(order.Items, state.OrderItem{Name: item.Name, Qty: int(item.Qty)})
	}
	return order
}

// ToOrders converts a list response. Queue positions follow list order.
func ToOrders(payloads []OrderPayload) []state.Order {
	orders := make([]state.Order, 0, len(payloads))
	for i, p := range payloads {
		o := p.ToOrder()
		o.QueuePosition = i + 1
		orders = append(orders, o)
	}
	return orders
}

// ProfilePayload mirrors /auth/me and /profile.
type ProfilePayload struct {
	ID            flexString `json:"id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	VehicleNumber string     `json:"vehicleNumber"`
	Rating        flexFloat  `json:"rating"`
}

// ToProfile converts the payload into the store's profile shape.
func (p ProfilePayload) ToProfile() *state.RiderProfile {
	return &state.RiderProfile{
		ID:            string(p.ID),
		Name:          p.Name,
		Phone:         p.Phone,
		VehicleNumber: p.VehicleNumber,
		Rating:        float64(p.Rating),
	}
}

// EarningsSummaryPayload mirrors /earnings/summary.
type EarningsSummaryPayload struct {
	Today      flexFloat `json:"today"`
	Week       flexFloat `json:"week"`
	Month      flexFloat `json:"month"`
	Deliveries flexFloat `json:"deliveries"`
}

// ToSummary converts the payload into the store's summary shape.
func (p EarningsSummaryPayload) ToSummary() *state.EarningsSummary {
	return &state.EarningsSummary{
		Today:      float64(p.Today),
		Week:       float64(p.Week),
		Month:      float64(p.Month),
		Deliveries: int(p.Deliveries),
	}
}

// ActivityPayload is one entry of /earnings/activity.
type ActivityPayload struct {
	ID          flexString `json:"id"`
	OrderID     flexString `json:"orderId"`
	Amount      flexFloat  `json:"amount"`
	Description string     `json:"description"`
	CreatedAt   string     `json:"createdAt"`
}

// ParsedCreatedAt returns CreatedAt as a time, or the zero time when it
// cannot be parsed.
func (p ActivityPayload) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

func toActivity(items []ActivityPayload) []state.EarningsActivity {
	out := make([]state.EarningsActivity, 0, len(items))
	for _, p := range items {
		out = append(out, state.EarningsActivity{
			ID:          string(p.ID),
			OrderID:     string(p.OrderID),
			Amount:      float64(p.Amount),
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
		})
	}
	return out
}

// authPayload is the verify-otp response. Backends name the token either way.
type authPayload struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"accessToken"`
	Rider       *ProfilePayload `json:"rider"`
}

func (p authPayload) token() string {
	if t := strings.TrimSpace(p.Token); t != "" {
		return t
	}
	return strings.TrimSpace(p.AccessToken)
}

const backendTimestampLayout = "2006-01-02 15:04:05"

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
