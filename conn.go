package flow

// ConnState tracks the lifecycle of a long-lived subscription transport.
//
// Transitions: Disconnected -> Connecting -> {Connected, ConnError};
// Connected -> Disconnected (manual) or Connected -> ConnError (transport
// failure). ConnError is never auto-recovered; a fresh Connect call moves
// it back to Connecting.
type ConnState int

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected
	ConnError
)

// String returns the lowercase state name for status lines and logs.
func (s ConnState) String() string {
	switch s {
	case ConnDisconnected:
		return "disconnected"
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	case ConnError:
		return "error"
	default:
		return "unknown"
	}
}
