package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type memCarrier struct {
	value  string
	set    bool
	maxAge time.Duration
}

func (c *memCarrier) Read() (string, bool) { return c.value, c.set }

func (c *memCarrier) Write(value string, maxAge time.Duration) {
	c.value, c.set, c.maxAge = value, true, maxAge
}

func (c *memCarrier) Clear() { c.value, c.set, c.maxAge = "", false, 0 }

type stubGateway struct {
	grant *domain.LoginGrant
	err   error
	calls int
}

func (g *stubGateway) Login(_ context.Context, _ domain.Credentials) (*domain.LoginGrant, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.grant, nil
}

// stubCodec keeps sessions in memory and hands out opaque keys.
type stubCodec struct {
	sessions map[string]domain.Session
}

func newStubCodec() *stubCodec { return &stubCodec{sessions: make(map[string]domain.Session)} }

func (c *stubCodec) Encode(s *domain.Session) (string, error) {
	key := "artifact-" + s.ID
	c.sessions[key] = *s
	return key, nil
}

func (c *stubCodec) Decode(artifact string) (*domain.Session, error) {
	s, ok := c.sessions[artifact]
	if !ok {
		return nil, errors.New("bad signature")
	}
	return &s, nil
}

type stubRevocations struct {
	revoked map[string]time.Duration
	err     error
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Duration)}
}

func (r *stubRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	r.revoked[id] = ttl
	return nil
}

func (r *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}

type stubAudit struct {
	events []domain.SessionEvent
	err    error
}

func (a *stubAudit) InsertSessionEvent(_ context.Context, e *domain.SessionEvent) error {
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, *e)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func demoGrant() *domain.LoginGrant {
	return &domain.LoginGrant{
		AccessToken:  "A1",
		RefreshToken: "R1",
		User: domain.BackendUser{
			ID: "u1", Email: "supplier@demo.com", Role: domain.RoleSupplier,
			FirstName: "Demo", LastName: "Supplier",
		},
	}
}

type storeFixture struct {
	store   *SessionStore
	gateway *stubGateway
	revoked *stubRevocations
	audit   *stubAudit
	clock   *time.Time
}

func newStoreFixture(grant *domain.LoginGrant, loginErr error) *storeFixture {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &storeFixture{
		gateway: &stubGateway{grant: grant, err: loginErr},
		revoked: newStubRevocations(),
		audit:   &stubAudit{},
		clock:   &now,
	}
	f.store = NewSessionStore(f.gateway, newStubCodec(), f.revoked, f.audit,
		SessionStoreConfig{Now: func() time.Time { return *f.clock }}, zerolog.Nop())
	return f
}

var demoCreds = domain.Credentials{Email: "supplier@demo.com", Password: "supplier123"}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSessionStore_Authenticate_Success(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}

	sess, err := f.store.Authenticate(context.Background(), carrier, demoCreds)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if sess.UserID != "u1" || sess.Role != domain.RoleSupplier || sess.DisplayName != "Demo Supplier" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.AccessToken != "A1" || sess.RefreshToken != "R1" {
		t.Fatalf("tokens not carried: %+v", sess)
	}
	if !sess.ExpiresAt.Equal(sess.IssuedAt.Add(domain.DefaultSessionMaxAge)) {
		t.Fatalf("unexpected lifetime: %s -> %s", sess.IssuedAt, sess.ExpiresAt)
	}
	if !carrier.set || carrier.maxAge != domain.DefaultSessionMaxAge {
		t.Fatalf("carrier not written: %+v", carrier)
	}

	cur := f.store.Current(context.Background(), carrier)
	if cur == nil || cur.UserID != "u1" || cur.Role != domain.RoleSupplier {
		t.Fatalf("Current after sign-in: %+v", cur)
	}
	if len(f.audit.events) != 1 || f.audit.events[0].Kind != domain.EventSignIn {
		t.Fatalf("expected one sign_in event, got %+v", f.audit.events)
	}
}

func TestSessionStore_Authenticate_GuardAllowsRoot(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}

	if _, err := f.store.Authenticate(context.Background(), carrier, demoCreds); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	d := domain.DefaultRoutePolicy().Decide("/", f.store.Current(context.Background(), carrier))
	if !d.Allow || d.State != domain.StateAuthorized {
		t.Fatalf("expected authorized, got %+v", d)
	}
}

func TestSessionStore_Authenticate_ValidationSkipsNetwork(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}

	_, err := f.store.Authenticate(context.Background(), carrier, domain.Credentials{Email: "not-an-email"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.gateway.calls != 0 {
		t.Fatalf("validation failure must not call the backend, got %d calls", f.gateway.calls)
	}
	if carrier.set {
		t.Fatal("carrier must stay empty")
	}
}

func TestSessionStore_Authenticate_Rejected(t *testing.T) {
	rejected := domain.NewAPIError(domain.KindInvalidCredentials, 401, "Invalid password")
	f := newStoreFixture(nil, rejected)
	carrier := &memCarrier{}

	_, err := f.store.Authenticate(context.Background(), carrier, demoCreds)
	if err == nil || err.Error() != "Invalid password" {
		t.Fatalf("expected server message, got %v", err)
	}
	if carrier.set {
		t.Fatal("carrier must stay empty after a rejected sign-in")
	}
	if f.store.Current(context.Background(), carrier) != nil {
		t.Fatal("no session may exist after a rejected sign-in")
	}
	if len(f.audit.events) != 1 || f.audit.events[0].Kind != domain.EventSignInFailed || f.audit.events[0].Reason != "Invalid password" {
		t.Fatalf("unexpected audit trail: %+v", f.audit.events)
	}
}

func TestSessionStore_Authenticate_RejectedKeepsPreviousSession(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}
	first, err := f.store.Authenticate(context.Background(), carrier, demoCreds)
	if err != nil {
		t.Fatalf("first sign-in failed: %v", err)
	}

	f.gateway.err = domain.NewAPIError(domain.KindNetwork, 0, "Unable to reach the server")
	if _, err := f.store.Authenticate(context.Background(), carrier, demoCreds); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	cur := f.store.Current(context.Background(), carrier)
	if cur == nil || cur.ID != first.ID {
		t.Fatalf("previous session must survive a failed sign-in, got %+v", cur)
	}
}

func TestSessionStore_Authenticate_ReplacesSession(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}
	first, _ := f.store.Authenticate(context.Background(), carrier, demoCreds)
	oldArtifact := carrier.value

	second, err := f.store.Authenticate(context.Background(), carrier, demoCreds)
	if err != nil {
		t.Fatalf("second sign-in failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh session id")
	}
	if _, ok := f.revoked.revoked[first.ID]; !ok {
		t.Fatal("replaced session must be revoked")
	}
	if f.store.Current(context.Background(), &memCarrier{value: oldArtifact, set: true}) != nil {
		t.Fatal("replaced artifact must no longer resolve")
	}
}

func TestSessionStore_Terminate(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}
	sess, _ := f.store.Authenticate(context.Background(), carrier, demoCreds)
	copied := &memCarrier{value: carrier.value, set: true}

	f.store.Terminate(context.Background(), carrier)

	if f.store.Current(context.Background(), carrier) != nil {
		t.Fatal("Current must be nil after Terminate")
	}
	if f.store.Current(context.Background(), copied) != nil {
		t.Fatal("a copied artifact must be rejected after Terminate")
	}
	ttl, ok := f.revoked.revoked[sess.ID]
	if !ok || ttl != domain.DefaultSessionMaxAge {
		t.Fatalf("expected revocation for remaining lifetime, got %v (%v)", ttl, ok)
	}
	last := f.audit.events[len(f.audit.events)-1]
	if last.Kind != domain.EventSignOut || last.SessionID != sess.ID {
		t.Fatalf("unexpected audit event: %+v", last)
	}
	if d := domain.DefaultRoutePolicy().Decide("/", f.store.Current(context.Background(), carrier)); d.Allow {
		t.Fatalf("guard must reject after sign-out, got %+v", d)
	}
}

func TestSessionStore_Terminate_Idempotent(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}

	f.store.Terminate(context.Background(), carrier)
	f.store.Terminate(context.Background(), carrier)

	if len(f.audit.events) != 0 {
		t.Fatalf("terminating an empty carrier must not be audited, got %+v", f.audit.events)
	}
}

func TestSessionStore_Current_Expired(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}
	if _, err := f.store.Authenticate(context.Background(), carrier, demoCreds); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}

	*f.clock = f.clock.Add(domain.DefaultSessionMaxAge)
	if f.store.Current(context.Background(), carrier) != nil {
		t.Fatal("expected nil for an expired session")
	}
}

func TestSessionStore_Current_Garbage(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	if f.store.Current(context.Background(), &memCarrier{value: "forged", set: true}) != nil {
		t.Fatal("expected nil for an unverifiable artifact")
	}
}

func TestSessionStore_Current_RevocationStoreDown(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	carrier := &memCarrier{}
	if _, err := f.store.Authenticate(context.Background(), carrier, demoCreds); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}

	f.revoked.err = errors.New("connection refused")
	if f.store.Current(context.Background(), carrier) == nil {
		t.Fatal("an unreachable revocation store must not sign users out")
	}
}

func TestSessionStore_AuditFailureIsNonFatal(t *testing.T) {
	f := newStoreFixture(demoGrant(), nil)
	f.audit.err = errors.New("mongo down")

	if _, err := f.store.Authenticate(context.Background(), &memCarrier{}, demoCreds); err != nil {
		t.Fatalf("audit failure must not fail sign-in: %v", err)
	}
}
