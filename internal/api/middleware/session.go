package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/ports"
	"github.com/supplyhub/supplier-console/internal/pkg/metrics"
)

const (
	// DefaultCookieName names the session cookie when none is configured.
	DefaultCookieName = "supplier_session"

	carrierKey = "session_carrier"
	sessionKey = "session"
)

// CookieOptions describes the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// cookieCarrier keeps the session artifact in an httpOnly cookie. Writes are
// mirrored in memory so later reads in the same request see them.
type cookieCarrier struct {
	c       echo.Context
	opts    CookieOptions
	value   string
	written bool
	cleared bool
}

func (cc *cookieCarrier) Read() (string, bool) {
	if cc.cleared {
		return "", false
	}
	if cc.written {
		return cc.value, true
	}
	ck, err := cc.c.Cookie(cc.opts.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (cc *cookieCarrier) Write(value string, maxAge time.Duration) {
	cc.value, cc.written, cc.cleared = value, true, false
	cc.c.SetCookie(cc.cookie(value, int(maxAge/time.Second), time.Now().Add(maxAge)))
}

func (cc *cookieCarrier) Clear() {
	cc.value, cc.written, cc.cleared = "", false, true
	cc.c.SetCookie(cc.cookie("", -1, time.Unix(0, 0)))
}

func (cc *cookieCarrier) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cc.opts.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cc.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Sessions resolves the session of each request and guards routes with it.
type Sessions struct {
	store  ports.SessionStore
	cookie CookieOptions
	policy domain.RoutePolicy
	log    zerolog.Logger
}

func NewSessions(store ports.SessionStore, cookie CookieOptions, policy domain.RoutePolicy, log zerolog.Logger) *Sessions {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	return &Sessions{store: store, cookie: cookie, policy: policy, log: log}
}

// Carrier returns the request's session carrier, creating it on first use.
func (s *Sessions) Carrier(c echo.Context) ports.SessionCarrier {
	if cc, ok := c.Get(carrierKey).(*cookieCarrier); ok {
		return cc
	}
	cc := &cookieCarrier{c: c, opts: s.cookie}
	c.Set(carrierKey, cc)
	return cc
}

// Lookup resolves the session once per request and exposes it on the
// request context for outbound calls.
func (s *Sessions) Lookup(c echo.Context) *domain.Session {
	if sess, ok := c.Get(sessionKey).(*domain.Session); ok {
		return sess
	}
	sess := s.store.Current(c.Request().Context(), s.Carrier(c))
	s.Bind(c, sess)
	return sess
}

// Bind records sess as the request's session. A nil session clears it.
func (s *Sessions) Bind(c echo.Context, sess *domain.Session) {
	c.Set(sessionKey, sess)
	req := c.Request()
	c.SetRequest(req.WithContext(domain.WithSession(req.Context(), sess)))
}

// Terminate signs the request's user out and forgets the session for the
// rest of the request.
func (s *Sessions) Terminate(c echo.Context, reason string) {
	s.store.Terminate(c.Request().Context(), s.Carrier(c))
	s.Bind(c, nil)
	metrics.SignOutsTotal.WithLabelValues(reason).Inc()
}

// CurrentSession returns the session resolved earlier in the chain, if any.
func CurrentSession(c echo.Context) *domain.Session {
	sess, _ := c.Get(sessionKey).(*domain.Session)
	return sess
}

// Guard gates page navigations. Excluded paths pass without reading the
// session; rejected navigations are redirected to the sign-in page with the
// original location as callbackUrl.
func (s *Sessions) Guard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if s.policy.IsExcluded(path) {
				metrics.GuardDecisionsTotal.WithLabelValues(string(domain.StateExcluded)).Inc()
				return next(c)
			}

			d := s.policy.Decide(path, s.Lookup(c))
			metrics.GuardDecisionsTotal.WithLabelValues(string(d.State)).Inc()
			if d.Allow {
				return next(c)
			}

			s.log.Debug().Str("path", path).Str("state", string(d.State)).Msg("navigation rejected")
			q := url.Values{"callbackUrl": {c.Request().URL.RequestURI()}}
			return c.Redirect(http.StatusFound, d.Target+"?"+q.Encode())
		}
	}
}

// Require rejects API calls without a valid session with a JSON 401.
func (s *Sessions) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.Lookup(c) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			return next(c)
		}
	}
}
