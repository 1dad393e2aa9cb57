package persist

// ProbeState is the reload probe's position for the current run.
type ProbeState int32

const (
	// ProbeIdle indicates no reload has been observed in this run.
	ProbeIdle ProbeState = iota

	// ProbeReloading indicates a pending reload was observed, preserved
	// resources were captured and exit was requested. It is terminal for
	// the run; the next load starts a fresh probe in ProbeIdle.
	ProbeReloading
)

// String returns the string representation of the state.
func (s ProbeState) String() string {
	switch s {
	case ProbeIdle:
		return "idle"
	case ProbeReloading:
		return "reloading"
	default:
		return "unknown"
	}
}
