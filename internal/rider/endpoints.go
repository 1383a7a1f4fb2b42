package rider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/courier/internal/orderstatus"
	"github.com/five82/courier/internal/state"
)

// Session is the result of a successful OTP verification.
type Session struct {
	Token   string
	Profile *state.RiderProfile
}

// ActivityQuery pages /earnings/activity.
type ActivityQuery struct {
	Page  int
	Limit int
}

// RequestOTP asks the backend to send a login code to phone.
func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("phone required")
	}
	return c.do(ctx, http.MethodPost, "/auth/request-otp", map[string]string{"phone": phone}, nil)
}

// VerifyOTP exchanges phone and code for a session token.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (Session, error) {
	var payload authPayload
	body := map[string]string{"phone": strings.TrimSpace(phone), "otp": strings.TrimSpace(otp)}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-otp", body, &payload); err != nil {
		return Session{}, err
	}
	token := payload.token()
	if token == "" {
		return Session{}, fmt.Errorf("verify otp: response carried no token")
	}
	s := Session{Token: token}
	if payload.Rider != nil {
		s.Profile = payload.Rider.ToProfile()
	}
	return s, nil
}

// Logout ends the session on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// FetchMe returns the rider bound to the current token.
func (c *Client) FetchMe(ctx context.Context) (*state.RiderProfile, error) {
	var payload ProfilePayload
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &payload); err != nil {
		return nil, err
	}
	return payload.ToProfile(), nil
}

// FetchProfile returns the rider profile.
func (c *Client) FetchProfile(ctx context.Context) (*state.RiderProfile, error) {
	var payload ProfilePayload
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &payload); err != nil {
		return nil, err
	}
	return payload.ToProfile(), nil
}

// UpdateAvailability tells the backend whether the rider takes new orders.
func (c *Client) UpdateAvailability(ctx context.Context, online bool) error {
	return c.do(ctx, http.MethodPatch, "/availability", map[string]bool{"online": online}, nil)
}

// FetchAssignedOrders returns the rider's orders in backend order with
// 1-based queue positions.
func (c *Client) FetchAssignedOrders(ctx context.Context) ([]state.Order, error) {
	var payload listOf[OrderPayload]
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &payload); err != nil {
		return nil, err
	}
	return ToOrders(payload), nil
}

// FetchOrder returns a single order.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (state.Order, error) {
	if err := requireID(orderID); err != nil {
		return state.Order{}, err
	}
	var payload OrderPayload
	if err := c.do(ctx, http.MethodGet, orderPath(orderID, ""), nil, &payload); err != nil {
		return state.Order{}, err
	}
	return payload.ToOrder(), nil
}

// UpdateOrderStatus records a lifecycle change on the backend.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status orderstatus.Status) error {
	if err := requireID(orderID); err != nil {
		return err
	}
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPost, orderPath(orderID, "/status"), body, nil)
}

// VerifyPickupOTP confirms the merchant handed the order over.
func (c *Client) VerifyPickupOTP(ctx context.Context, orderID, otp string) error {
	if err := requireID(orderID); err != nil {
		return err
	}
	body := map[string]string{"otp": strings.TrimSpace(otp)}
	return c.do(ctx, http.MethodPost, orderPath(orderID, "/pickup/verify-otp"), body, nil)
}

// VerifyDeliveryOTP confirms the customer received the order.
func (c *Client) VerifyDeliveryOTP(ctx context.Context, orderID, otp string) error {
	if err := requireID(orderID); err != nil {
		return err
	}
	body := map[string]string{"otp": strings.TrimSpace(otp)}
	return c.do(ctx, http.MethodPost, orderPath(orderID, "/delivery/verify-otp"), body, nil)
}

// FetchEarningsSummary returns payout totals.
func (c *Client) FetchEarningsSummary(ctx context.Context) (*state.EarningsSummary, error) {
	var payload EarningsSummaryPayload
	if err := c.do(ctx, http.MethodGet, "/earnings/summary", nil, &payload); err != nil {
		return nil, err
	}
	return payload.ToSummary(), nil
}

// FetchEarningsActivity returns one page of ledger entries.
func (c *Client) FetchEarningsActivity(ctx context.Context, query ActivityQuery) ([]state.EarningsActivity, error) {
	values := url.Values{}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	rel := &url.URL{Path: BasePath + "/earnings/activity", RawQuery: values.Encode()}
	var payload listOf[ActivityPayload]
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return toActivity(payload), nil
}

func orderPath(orderID, suffix string) string {
	return "/orders/" + url.PathEscape(strings.TrimSpace(orderID)) + suffix
}

func requireID(orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("order id required")
	}
	return nil
}
