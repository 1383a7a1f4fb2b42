package netmon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/five82/courier/internal/logging"
)

const (
	defaultPingInterval = 10 * time.Second
	defaultPongWait     = 25 * time.Second
	defaultWriteWait    = 5 * time.Second
	minReconnectDelay   = 500 * time.Millisecond
	maxReconnectDelay   = 30 * time.Second
	maxEventMessageSize = 4096
)

// WebsocketSource reports connectivity from a long-lived websocket to the
// rider events endpoint. An open connection means connected; a missed pong
// deadline means connected but unreachable; a dropped connection means
// disconnected and triggers a reconnect with backoff.
type WebsocketSource struct {
	URL          string
	Header       func() http.Header
	Dialer       *websocket.Dialer
	PingInterval time.Duration
	PongWait     time.Duration
	Logger       *logrus.Entry
}

// Subscribe dials in the background and delivers events to fn until ctx ends
// or cancel is called. It returns ErrSourceUnavailable when no usable URL is
// configured.
func (s *WebsocketSource) Subscribe(ctx context.Context, fn func(Event)) (func(), error) {
	target, err := websocketURL(s.URL)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(runCtx, target, fn)
	}()
	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

func (s *WebsocketSource) run(ctx context.Context, target string, fn func(Event)) {
	log := s.logger().WithField("url", target)
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	delay := minReconnectDelay

	for {
		var header http.Header
		if s.Header != nil {
			header = s.Header()
		}
		conn, _, err := dialer.DialContext(ctx, target, header)
		if ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		if err != nil {
			log.WithError(err).Debug("events dial failed")
			fn(Event{Connected: false})
		} else {
			delay = minReconnectDelay
			fn(Event{Connected: true})
			err = s.serve(ctx, conn)
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Info("events connection lost")
			fn(lostEvent(err))
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// serve keeps conn alive with pings and reads until it fails or ctx ends.
func (s *WebsocketSource) serve(ctx context.Context, conn *websocket.Conn) error {
	pingInterval, pongWait := s.PingInterval, s.PongWait
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}

	conn.SetReadLimit(maxEventMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(defaultWriteWait))
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(defaultWriteWait)); err != nil {
					return
				}
			}
		}
	}()
	defer func() {
		close(stop)
		wg.Wait()
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (s *WebsocketSource) logger() *logrus.Entry {
	if s.Logger != nil {
		return s.Logger.WithField("component", "netmon.ws")
	}
	return logging.Discard()
}

// lostEvent maps a read failure to an event: a read timeout means the link is
// up but the backend stopped answering.
func lostEvent(err error) Event {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		unreachable := false
		return Event{Connected: true, Reachable: &unreachable}
	}
	return Event{Connected: false}
}

func websocketURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrSourceUnavailable
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("events url %q: %w", raw, ErrSourceUnavailable)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("events url %q: unsupported scheme: %w", raw, ErrSourceUnavailable)
	}
	return u.String(), nil
}
