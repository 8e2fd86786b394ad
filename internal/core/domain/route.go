package domain

import "strings"

// GuardState is the outcome class of a route guard evaluation.
type GuardState string

const (
	StateExcluded        GuardState = "excluded"
	StateUnauthenticated GuardState = "unauthenticated"
	StateWrongRole       GuardState = "authenticated_wrong_role"
	StateAuthorized      GuardState = "authenticated_authorized"
)

// DefaultSignInPath is where rejected navigations are sent.
const DefaultSignInPath = "/login"

// DefaultExcludedPrefixes bypass the guard entirely. A path is excluded when
// the part after its leading slash starts with one of these.
var DefaultExcludedPrefixes = []string{
	"api",
	"_next/static",
	"_next/image",
	"favicon.ico",
	"login",
	"forget-password",
	"reset-your-password",
	"verify-otp",
	"email-verify",
	"health",
	"metrics",
	"swagger",
	"static",
}

// RouteDecision is the pure result of evaluating a path against a session.
type RouteDecision struct {
	State  GuardState
	Allow  bool
	Target string
}

// RoutePolicy decides whether a navigation is permitted.
type RoutePolicy struct {
	Excluded     []string
	RequiredRole string
	SignInPath   string
}

// DefaultRoutePolicy requires the supplier role everywhere outside the allow-list.
func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{
		Excluded:     DefaultExcludedPrefixes,
		RequiredRole: RoleSupplier,
		SignInPath:   DefaultSignInPath,
	}
}

// IsExcluded reports whether path bypasses the guard. It must be checked
// before any session lookup.
func (p RoutePolicy) IsExcluded(path string) bool {
	rest := strings.TrimPrefix(path, "/")
	for _, prefix := range p.Excluded {
		if strings.HasPrefix(rest, prefix) {
			return true
		}
	}
	return false
}

// Decide evaluates path against s. It never caches.
func (p RoutePolicy) Decide(path string, s *Session) RouteDecision {
	if p.IsExcluded(path) {
		return RouteDecision{State: StateExcluded, Allow: true}
	}

	target := p.SignInPath
	if target == "" {
		target = DefaultSignInPath
	}

	switch {
	case s == nil:
		return RouteDecision{State: StateUnauthenticated, Target: target}
	case p.RequiredRole != "" && s.Role != p.RequiredRole:
		return RouteDecision{State: StateWrongRole, Target: target}
	default:
		return RouteDecision{State: StateAuthorized, Allow: true}
	}
}
