// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Join outcomes.
const (
	JoinJoined        = "joined"
	JoinAlreadyMember = "already_member"
	JoinRace          = "race"
)

// Magic link delivery outcomes.
const (
	MagicLinkSent   = "sent"
	MagicLinkFailed = "failed"
)

// Session resolution outcomes.
const (
	SessionValid     = "valid"
	SessionRefreshed = "refreshed"
	SessionMissing   = "missing"
	SessionInvalid   = "invalid"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Group metrics
	IncGroupCreated()
	IncGroupJoin(outcome string) // outcome: "joined", "already_member", "race"

	// Identity metrics
	IncMagicLink(status string)         // status: "sent" or "failed"
	IncSessionResolution(result string) // result: "valid", "refreshed", "missing", "invalid"

	// Session Gate metrics
	IncGateRedirect(target string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
