package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GroupsCreated      uint64
	GroupJoins         map[string]uint64
	MagicLinks         map[string]uint64
	SessionResolutions map[string]uint64
	GateRedirects      map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	groupsCreated uint64

	mu                 sync.Mutex
	groupJoins         map[string]uint64
	magicLinks         map[string]uint64
	sessionResolutions map[string]uint64
	gateRedirects      map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		groupJoins:         make(map[string]uint64),
		magicLinks:         make(map[string]uint64),
		sessionResolutions: make(map[string]uint64),
		gateRedirects:      make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		GroupsCreated:      atomic.LoadUint64(&m.groupsCreated),
		GroupJoins:         copyCounts(m.groupJoins),
		MagicLinks:         copyCounts(m.magicLinks),
		SessionResolutions: copyCounts(m.sessionResolutions),
		GateRedirects:      copyCounts(m.gateRedirects),
	}
}

// IncGroupCreated increments the group created counter.
func (m *InMemoryRecorder) IncGroupCreated() {
	atomic.AddUint64(&m.groupsCreated, 1)
}

// IncGroupJoin increments the join counter for outcome.
func (m *InMemoryRecorder) IncGroupJoin(outcome string) {
	m.inc(m.groupJoins, outcome)
}

// IncMagicLink increments the magic link counter for status.
func (m *InMemoryRecorder) IncMagicLink(status string) {
	m.inc(m.magicLinks, status)
}

// IncSessionResolution increments the session resolution counter for result.
func (m *InMemoryRecorder) IncSessionResolution(result string) {
	m.inc(m.sessionResolutions, result)
}

// IncGateRedirect increments the gate redirect counter for target.
func (m *InMemoryRecorder) IncGateRedirect(target string) {
	m.inc(m.gateRedirects, target)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
