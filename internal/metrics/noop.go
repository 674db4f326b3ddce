package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncGroupCreated is a no-op.
func (n *NoopRecorder) IncGroupCreated() {}

// IncGroupJoin is a no-op.
func (n *NoopRecorder) IncGroupJoin(outcome string) {}

// IncMagicLink is a no-op.
func (n *NoopRecorder) IncMagicLink(status string) {}

// IncSessionResolution is a no-op.
func (n *NoopRecorder) IncSessionResolution(result string) {}

// IncGateRedirect is a no-op.
func (n *NoopRecorder) IncGateRedirect(target string) {}
