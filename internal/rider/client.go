package rider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/five82/courier/internal/apierr"
	"github.com/five82/courier/internal/logging"
)

// BasePath prefixes every rider endpoint.
const BasePath = "/api/v1/rider"

const (
	defaultAPIURL    = "127.0.0.1:8080"
	defaultUserAgent = "courier/0.1"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// Client talks to the rider HTTP API. It carries the session token and the
// failure handlers so no package level state is needed.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	handlers  *apierr.Handlers
	log       *logrus.Entry

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHandlers routes classified failures to h.
func WithHandlers(h *apierr.Handlers) Option {
	return func(c *Client) { c.handlers = h }
}

// WithLogger sets the request logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Client) {
		if entry != nil {
			c.log = entry
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The configured timeout
// is kept unless hc sets its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		if hc.Timeout == 0 {
			hc.Timeout = c.http.Timeout
		}
		c.http = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the API at apiURL (host:port or full URL).
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: defaultUserAgent,
		log:       logging.Discard().WithField("component", "rider"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetToken sets the bearer token attached to later requests. An empty token
// removes the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Ping sends a HEAD request to the API origin. Any HTTP response, whatever
// its status, counts as reachable. Ping never invokes the failure handlers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return apierr.Classify(transportFailure(ctx, err))
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel, err := relURL(path)
	if err != nil {
		return err
	}
	return c.doURL(ctx, method, rel, body, dest)
}

// relURL parses an endpoint path under BasePath. Path segments may carry
// escapes, which url.Parse keeps in RawPath.
func relURL(path string) (*url.URL, error) {
	rel, err := url.Parse(BasePath + path)
	if err != nil {
		return nil, fmt.Errorf("build path %q: %w", path, err)
	}
	return rel, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}
	return c.send(ctx, method, rel, reader, contentType, dest)
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType string, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if sized, ok := body.(interface{ Size() int64 }); ok {
		req.ContentLength = sized.Size()
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       rel.Path,
	})
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, log, transportFailure(ctx, err))
	}
	defer func() { _ = resp.Body.Close() }()
	log = log.WithField("status", resp.StatusCode).WithField("elapsed", time.Since(started))

	if resp.StatusCode >= 400 {
		return c.fail(ctx, log, httpFailure(resp))
	}
	log.Debug("request ok")
	c.handlers.ReportOnline()

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapEnvelope(raw), dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// fail classifies f, hands it to the failure handlers unless the caller
// cancelled, and returns the classified error.
func (c *Client) fail(ctx context.Context, log *logrus.Entry, f apierr.Failure) error {
	classified := apierr.Classify(f)
	if f.Code == apierr.CodeCanceled {
		log.Debug("request canceled")
		return classified
	}
	log.WithError(classified).WithField("kind", classified.Kind).Warn("request failed")
	c.handlers.Handle(classified)
	return classified
}

// transportFailure describes an error returned before any HTTP response.
func transportFailure(ctx context.Context, err error) apierr.Failure {
	f := apierr.Failure{Message: apierr.NetworkErrorMessage, Cause: err}
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		f.Code = apierr.CodeCanceled
		f.Message = "canceled"
		if !errors.Is(err, context.Canceled) {
			f.Cause = fmt.Errorf("%w: %v", context.Canceled, err)
		}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		f.Code = apierr.CodeTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		f.Code = apierr.CodeConnRefused
	case errors.Is(err, syscall.ECONNRESET):
		f.Code = apierr.CodeConnReset
	case errors.As(err, &dnsErr):
		f.Code = apierr.CodeHostNotFound
	case errors.As(err, &netErr) && netErr.Timeout():
		f.Code = apierr.CodeTimeout
	default:
		f.Code = apierr.CodeNetwork
	}
	return f
}

func httpFailure(resp *http.Response) apierr.Failure {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &payload)
	return apierr.Failure{
		Status:        resp.StatusCode,
		Message:       http.StatusText(resp.StatusCode),
		ServerMessage: payload.Message,
		Cause:         fmt.Errorf("api %s returned status %d", resp.Request.URL.Path, resp.StatusCode),
	}
}

// unwrapEnvelope returns the "data" member of a {"data": ...} response body,
// or raw unchanged when the body is not enveloped.
func unwrapEnvelope(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return raw
	}
	data, ok := env["data"]
	if !ok || len(env) > 3 {
		return raw
	}
	for key := range env {
		switch key {
		case "data", "success", "message":
		default:
			return raw
		}
	}
	return data
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
