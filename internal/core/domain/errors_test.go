package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestAPIError_Is(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("login: %w", &APIError{Kind: KindNetwork, Message: "Network error", Err: cause})

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected errors.Is(err, ErrNetwork)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to stay reachable")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("network failure must not look unauthorized")
	}
	if got := KindOf(err); got != KindNetwork {
		t.Errorf("KindOf = %q, want %q", got, KindNetwork)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}

func TestAPIError_Error(t *testing.T) {
	if got := NewAPIError(KindInvalidCredentials, 401, "Wrong password").Error(); got != "Wrong password" {
		t.Errorf("got %q", got)
	}
	if got := NewAPIError(KindServer, 500, "").Error(); got != string(KindServer) {
		t.Errorf("empty message should fall back to the kind, got %q", got)
	}
}

func TestErrorKind_HTTPStatus(t *testing.T) {
	tests := map[ErrorKind]int{
		KindValidation:         http.StatusUnprocessableEntity,
		KindInvalidCredentials: http.StatusUnauthorized,
		KindUnauthorized:       http.StatusUnauthorized,
		KindNetwork:            http.StatusBadGateway,
		KindServer:             http.StatusBadGateway,
		ErrorKind("other"):     http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := kind.HTTPStatus(); got != want {
			t.Errorf("%s: got %d, want %d", kind, got, want)
		}
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if (&Session{ExpiresAt: now.Add(time.Second)}).Expired(now) {
		t.Error("session expiring in the future reported expired")
	}
	if !(&Session{ExpiresAt: now}).Expired(now) {
		t.Error("session is expired at its expiry instant")
	}
	if (&Session{}).Expired(now) {
		t.Error("zero expiry means no absolute limit")
	}
}

func TestBackendUser_DisplayName(t *testing.T) {
	if got := (BackendUser{FirstName: "Ana", LastName: "Ruiz"}).DisplayName(); got != "Ana Ruiz" {
		t.Errorf("got %q", got)
	}
	if got := (BackendUser{FirstName: "Ana"}).DisplayName(); got != "Ana" {
		t.Errorf("got %q", got)
	}
}

func TestSessionFromContext(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatal("empty context should carry no session")
	}

	s := &Session{UserID: "u1"}
	ctx := WithSession(context.Background(), s)
	if got, ok := SessionFromContext(ctx); !ok || got != s {
		t.Fatalf("got %v, %v", got, ok)
	}

	if _, ok := SessionFromContext(WithSession(ctx, nil)); ok {
		t.Fatal("a nil session must shadow the parent")
	}
}

func TestNotificationPage_Unviewed(t *testing.T) {
	p := &NotificationPage{Items: []NotificationEvent{{Viewed: true}, {}, {}}}
	if got := p.Unviewed(); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}
