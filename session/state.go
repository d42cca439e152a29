package session

// State is the session lifecycle position. Transitions are owned by the
// Manager; everything else only reads.
type State int

const (
	StateUninitialized State = iota
	StateAuthenticating
	StateAuthenticated
	StateExpired
	StateReauthenticating
	// StateFailed is terminal: credentials rejected or the target stayed
	// unreachable. The session is unusable until an explicit restart.
	StateFailed
	// StateClosed is terminal: explicit shutdown.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateReauthenticating:
		return "reauthenticating"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
