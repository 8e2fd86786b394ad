// Package realtime keeps a per-user WebSocket subscription to the marketplace
// notification feed.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/pkg/metrics"
)

// DefaultBaseURL is used when no realtime endpoint is configured.
const DefaultBaseURL = "ws://localhost:5000"

// stableAfter is how long a connection must stay up before the reconnect
// budget is restored.
const stableAfter = 30 * time.Second

// ErrNoUser is returned by Connect when no user id is given.
var ErrNoUser = errors.New("realtime: user id is required")

// State is the lifecycle phase of a Channel.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ReconnectPolicy enables capped exponential backoff after a dropped or
// failed connection. The zero value never reconnects. Unset delays default
// to 500ms and 30s.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

const (
	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 30 * time.Second
)

// delay returns the wait before the given 1-based attempt. It never exceeds
// the cap, whatever the attempt number.
func (p ReconnectPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	limit := p.MaxDelay
	if limit <= 0 {
		limit = defaultMaxDelay
	}
	if base >= limit {
		return limit
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d >= limit/2 {
			return limit
		}
		d *= 2
	}
	return d
}

// Message is one push received on a channel. JSON is set when the payload
// parses as any JSON value, Event when that value is a notification object.
// Raw always holds the payload.
type Message struct {
	Event *domain.NotificationEvent
	JSON  json.RawMessage
	Raw   []byte
}

// Handler receives messages in arrival order, on the channel's reader goroutine.
type Handler func(Message)

// Dialer opens channels against one realtime endpoint.
type Dialer struct {
	baseURL   string
	reconnect ReconnectPolicy
	ws        *websocket.Dialer
	log       zerolog.Logger
}

// NewDialer returns a Dialer for baseURL. http(s) URLs are mapped to ws(s).
func NewDialer(baseURL string, reconnect ReconnectPolicy, log zerolog.Logger) *Dialer {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	switch {
	case base == "":
		base = DefaultBaseURL
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return &Dialer{
		baseURL:   base,
		reconnect: reconnect,
		ws:        &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:       log,
	}
}

// URL returns the feed address for userID.
func (d *Dialer) URL(userID string) string {
	return d.baseURL + "/notification/supplier/" + url.PathEscape(userID)
}

// Connect starts a channel for userID and returns at once in StateConnecting.
// The channel stops when ctx is cancelled or Close is called.
func (d *Dialer) Connect(ctx context.Context, userID string, handler Handler) (*Channel, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if handler == nil {
		handler = func(Message) {}
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Channel{
		dialer:  d,
		url:     d.URL(userID),
		userID:  userID,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StateConnecting,
		log:     d.log.With().Str("component", "realtime").Str("user_id", userID).Logger(),
	}
	go c.run()
	return c, nil
}

// Channel is a single user's notification subscription.
type Channel struct {
	dialer  *Dialer
	url     string
	userID  string
	handler Handler
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	stateMu   sync.RWMutex
	state     State
	closeOnce sync.Once
}

// State reports the current lifecycle phase.
func (c *Channel) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Done is closed once the channel has stopped for good.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Close aborts a pending dial or closes the open socket, and returns only
// after the reader has exited. Further calls are no-ops.
func (c *Channel) Close() error {
	c.closeOnce.Do(c.cancel)
	<-c.done
	c.setState(StateClosed)
	return nil
}

func (c *Channel) setState(s State) {
	c.stateMu.Lock()
	if c.state != StateClosed {
		c.state = s
	}
	c.stateMu.Unlock()
}

func (c *Channel) run() {
	defer close(c.done)

	attempt := 0
	for {
		c.setState(StateConnecting)
		conn, _, err := c.dialer.ws.DialContext(c.ctx, c.url, nil)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("realtime connection failed")
			c.setState(StateDisconnected)
			if !c.backoff(&attempt) {
				return
			}
			continue
		}

		connectedAt := time.Now()
		c.setState(StateConnected)
		metrics.RealtimeConnections.Inc()
		c.log.Debug().Msg("realtime connected")

		c.read(conn)

		metrics.RealtimeConnections.Dec()
		c.setState(StateDisconnected)
		c.log.Debug().Msg("realtime disconnected")
		if time.Since(connectedAt) >= stableAfter {
			attempt = 0
		}
		if c.ctx.Err() != nil || !c.backoff(&attempt) {
			return
		}
	}
}

// read consumes messages until the socket fails or the channel is cancelled.
func (c *Channel) read(conn *websocket.Conn) {
	stop := context.AfterFunc(c.ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer func() {
		if stop() {
			_ = conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn().Err(err).Msg("realtime read failed")
			}
			return
		}
		c.handler(decode(data))
	}
}

// backoff waits before the next attempt. It reports false when reconnecting
// is disabled, attempts are exhausted, or the channel was cancelled.
func (c *Channel) backoff(attempt *int) bool {
	p := c.dialer.reconnect
	if p.MaxAttempts <= 0 || *attempt >= p.MaxAttempts {
		return false
	}
	*attempt++

	t := time.NewTimer(p.delay(*attempt))
	defer t.Stop()
	select {
	case <-c.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// wireEvent is the notification shape as pushed. Timestamps are kept raw so
// an unparsable date does not hide the rest of the event.
type wireEvent struct {
	ID        string                      `json:"_id"`
	UserID    string                      `json:"userId"`
	Message   string                      `json:"message"`
	Category  domain.NotificationCategory `json:"type"`
	Viewed    bool                        `json:"isViewed"`
	CreatedAt json.RawMessage             `json:"createdAt"`
	UpdatedAt json.RawMessage             `json:"updatedAt"`
}

func decode(data []byte) Message {
	msg := Message{Raw: data}

	var value json.RawMessage
	if err := json.Unmarshal(data, &value); err != nil {
		metrics.RealtimeMessagesTotal.WithLabelValues("raw").Inc()
		return msg
	}
	msg.JSON = value

	var w wireEvent
	if err := json.Unmarshal(value, &w); err != nil || !isObject(value) {
		metrics.RealtimeMessagesTotal.WithLabelValues("json").Inc()
		return msg
	}
	msg.Event = &domain.NotificationEvent{
		ID:        w.ID,
		UserID:    w.UserID,
		Message:   w.Message,
		Category:  w.Category,
		Viewed:    w.Viewed,
		CreatedAt: parseTime(w.CreatedAt),
		UpdatedAt: parseTime(w.UpdatedAt),
	}
	metrics.RealtimeMessagesTotal.WithLabelValues("event").Inc()
	return msg
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimLeft(v, " \t\r\n")
	return len(v) > 0 && v[0] == '{'
}

// parseTime returns the zero time for missing or unparsable timestamps.
func parseTime(raw json.RawMessage) time.Time {
	var t time.Time
	if len(raw) == 0 || json.Unmarshal(raw, &t) != nil {
		return time.Time{}
	}
	return t
}
