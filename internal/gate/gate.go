// Package gate decides, per request path, whether a visitor may proceed or
// must be redirected based on whether they are signed in.
package gate

import "strings"

// Default paths.
const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
	APIPrefix   = "/api"
)

// DefaultPublicPrefixes are reachable without a session.
var DefaultPublicPrefixes = []string{
	"/login",
	"/auth",
	"/manifest.webmanifest",
	"/manifest.json",
	"/icons",
	"/groups/join",
	"/healthz",
	"/readyz",
	"/metrics",
	"/offline",
}

// Action is what the gate does with a request.
type Action int

const (
	// Allow lets the request through.
	Allow Action = iota
	// Redirect sends the visitor to Decision.Location.
	Redirect
)

// Decision is the outcome of Policy.Decide.
type Decision struct {
	Action   Action
	Location string
}

// Policy holds the route classification used by the Session Gate.
type Policy struct {
	PublicPrefixes []string
	LoginPath      string
	LandingPath    string
	APIPrefix      string
}

// DefaultPolicy returns the application's routing policy.
func DefaultPolicy() Policy {
	return Policy{
		PublicPrefixes: DefaultPublicPrefixes,
		LoginPath:      LoginPath,
		LandingPath:    LandingPath,
		APIPrefix:      APIPrefix,
	}
}

// Decide classifies path for a visitor that is or is not signed in.
//
//   - signed in, on exactly the login page: redirect to the landing page
//   - signed out, on a non-public page: redirect to the login page
//   - API paths always pass; endpoints answer 401 themselves
//   - everything else passes
func (p Policy) Decide(path string, authenticated bool) Decision {
	if authenticated && path == p.LoginPath {
		return Decision{Action: Redirect, Location: p.LandingPath}
	}
	if authenticated || p.IsAPI(path) || p.IsPublic(path) {
		return Decision{Action: Allow}
	}
	return Decision{Action: Redirect, Location: p.LoginPath}
}

// IsPublic reports whether path is reachable without a session.
func (p Policy) IsPublic(path string) bool {
	for _, prefix := range p.PublicPrefixes {
		if matchesPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsAPI reports whether path belongs to the JSON API.
func (p Policy) IsAPI(path string) bool {
	return p.APIPrefix != "" && matchesPrefix(path, p.APIPrefix)
}

// matchesPrefix reports whether path is prefix itself or lies beneath it.
// "/loginx" does not match "/login".
func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}
