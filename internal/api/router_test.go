package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/api/middleware"
	"github.com/supplyhub/supplier-console/internal/core/domain"
	"github.com/supplyhub/supplier-console/internal/core/service"
	"github.com/supplyhub/supplier-console/internal/infrastructure/backend"
	redisstore "github.com/supplyhub/supplier-console/internal/infrastructure/db/redis"
	"github.com/supplyhub/supplier-console/internal/infrastructure/token"
)

// fakeMarketplace answers the backend endpoints the console calls.
func fakeMarketplace(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		w.Header().Set("Content-Type", "application/json")
		if creds.Password != "supplier123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid password"}`))
			return
		}
		role := domain.RoleSupplier
		if creds.Email == "customer@demo.com" {
			role = domain.RoleCustomer
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"accessToken": "A1", "refreshToken": "R1",
				"user": map[string]any{"id": "u1", "email": creds.Email, "role": role, "firstName": "Demo", "lastName": "Supplier"},
			},
		})
	})
	mux.HandleFunc("GET /notification/supplier/u1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Unauthorized"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"_id":"n1","userId":"u1","message":"New order","type":"order","isViewed":false}],"meta":{"page":1,"limit":10,"total":1,"totalPage":1}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.Nop()
	codec, err := token.NewJWTCodec("test-secret")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	client := backend.New(backend.Options{BaseURL: fakeMarketplace(t).URL}, log)
	store := service.NewSessionStore(client, codec, redisstore.NewRevocationStore(rdb), nil, service.SessionStoreConfig{}, log)
	notifications := service.NewNotificationService(client, redisstore.NewNotificationCache(rdb), 0, log)

	return NewRouter(Deps{
		Log:           log,
		Store:         store,
		Account:       client,
		Notifications: notifications,
		Policy:        domain.DefaultRoutePolicy(),
	})
}

func do(e *echo.Echo, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.DefaultCookieName {
			return ck
		}
	}
	t.Fatalf("no session cookie in response: %v", rec.Header().Values("Set-Cookie"))
	return nil
}

func TestRouter_UnauthenticatedNavigationRedirects(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodGet, "/orders", "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login?callbackUrl=%2Forders" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	e := newTestRouter(t)

	for _, p := range []string{"/health", "/metrics", "/swagger/doc.json"} {
		if rec := do(e, http.MethodGet, p, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, rec.Code)
		}
	}
	if rec := do(e, http.MethodGet, "/api/notifications", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for API without session, got %d", rec.Code)
	}
}

func TestRouter_SignInNavigateSignOut(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"supplier@demo.com","password":"supplier123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	ck := sessionCookie(t, rec)
	if !ck.HttpOnly || ck.MaxAge != 30*24*60*60 {
		t.Fatalf("unexpected cookie attributes: %+v", ck)
	}

	rec = do(e, http.MethodGet, "/", "", []*http.Cookie{ck})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"view":"dashboard"`) {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/notifications", "", []*http.Cookie{ck})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"_id":"n1"`) {
		t.Fatalf("notifications: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/api/auth/logout", "", []*http.Cookie{ck})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	// A copy of the old cookie is rejected once revoked.
	rec = do(e, http.MethodGet, "/", "", []*http.Cookie{ck})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", rec.Code)
	}
}

func TestRouter_WrongRoleRedirects(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"customer@demo.com","password":"supplier123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	ck := sessionCookie(t, rec)

	if rec := do(e, http.MethodGet, "/products", "", []*http.Cookie{ck}); rec.Code != http.StatusFound {
		t.Fatalf("expected redirect for wrong role, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/notifications", "", []*http.Cookie{ck}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong role, got %d", rec.Code)
	}
}

func TestRouter_LoginFailures(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodPost, "/api/auth/login", `{"email":"supplier@demo.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), `"error":"Invalid password"`) {
		t.Fatalf("rejected login: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatal("rejected login must not set a cookie")
	}

	rec = do(e, http.MethodPost, "/api/auth/login", `{"email":"","password":""}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
