package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/ports"
	"github.com/supplyhub/supplier-console/internal/pkg/metrics"
)

var (
	_ ports.AuthGateway         = (*Client)(nil)
	_ ports.AccountGateway      = (*Client)(nil)
	_ ports.NotificationGateway = (*Client)(nil)
)

// envelope is the backend's standard response wrapper.
type envelope[T any] struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
}

type loginData struct {
	AccessToken  string              `json:"accessToken"`
	RefreshToken string              `json:"refreshToken"`
	User         *domain.BackendUser `json:"user"`
}

type accessTokenData struct {
	AccessToken string `json:"accessToken"`
}

type notificationList struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Data    []domain.NotificationEvent `json:"data"`
	Meta    domain.PageMeta            `json:"meta"`
}

// Login exchanges credentials for a token pair. It is sent without a bearer
// and is never retried. A rejected login carries the server's message
// verbatim, or "Login failed" when there is none.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginGrant, error) {
	status, raw, err := c.roundTrip(ctx, http.MethodPost, "/auth/login", creds, requestConfig{hasBearer: true})
	if err != nil {
		return nil, err
	}

	var resp envelope[loginData]
	// A body that is not JSON leaves resp zeroed and is reported as a failed login.
	_ = json.Unmarshal(raw, &resp)

	if status < 200 || status > 299 || !resp.Success {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = domain.MsgLoginFailed
		}
		kind := domain.KindInvalidCredentials
		if status >= http.StatusInternalServerError {
			kind = domain.KindServer
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(http.MethodPost, string(kind)).Inc()
		return nil, &domain.APIError{Kind: kind, Status: status, Message: msg}
	}

	d := resp.Data
	if d.AccessToken == "" || d.RefreshToken == "" || d.User == nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(http.MethodPost, string(domain.KindServer)).Inc()
		return nil, &domain.APIError{Kind: domain.KindServer, Status: status, Message: domain.MsgInvalidLoginResponse}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(http.MethodPost, "ok").Inc()
	return &domain.LoginGrant{
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		User:         *d.User,
	}, nil
}

// Me returns the profile of the session's user.
func (c *Client) Me(ctx context.Context) (*domain.BackendUser, error) {
	var resp envelope[domain.BackendUser]
	if err := c.Request(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) ChangePassword(ctx context.Context, in ports.ChangePasswordInput) (string, error) {
	var resp envelope[json.RawMessage]
	if err := c.Request(ctx, http.MethodPost, "/auth/change-password", in, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp envelope[json.RawMessage]
	body := map[string]string{"email": email}
	if err := c.Request(ctx, http.MethodPost, "/auth/forgot-password", body, &resp, WithBearer("")); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyOTP checks a one-time code. When in.Token is set it is sent as the
// bearer (email verification); otherwise the call is anonymous.
func (c *Client) VerifyOTP(ctx context.Context, in ports.VerifyOTPInput) (*ports.VerifyOTPResult, error) {
	var resp envelope[accessTokenData]
	if err := c.Request(ctx, http.MethodPost, "/auth/verify-otp", in, &resp, WithBearer(in.Token)); err != nil {
		return nil, err
	}
	return &ports.VerifyOTPResult{Message: resp.Message, AccessToken: resp.Data.AccessToken}, nil
}

// ResetPassword sets a new password using the token issued by VerifyOTP.
func (c *Client) ResetPassword(ctx context.Context, token string, in ports.ResetPasswordInput) (string, error) {
	var resp envelope[json.RawMessage]
	if err := c.Request(ctx, http.MethodPost, "/auth/reset-password", in, &resp, WithBearer(token)); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) ListNotifications(ctx context.Context, userID string, page, limit int) (*domain.NotificationPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp notificationList
	if err := c.Request(ctx, http.MethodGet, "/notification/supplier/"+url.PathEscape(userID), nil, &resp, WithQuery(q)); err != nil {
		return nil, err
	}
	items := resp.Data
	if items == nil {
		items = []domain.NotificationEvent{}
	}
	return &domain.NotificationPage{Items: items, Meta: resp.Meta}, nil
}

func (c *Client) MarkAllNotificationsViewed(ctx context.Context) error {
	return c.Request(ctx, http.MethodPatch, "/notification/read/all", nil, nil)
}
