package feed

import "time"

// State is the connection lifecycle state.
type State int

const (
	// StateConnecting is the initial state and the state during any dial.
	StateConnecting State = iota

	// StateOpen means the push channel is live.
	StateOpen

	// StateClosedNormal is terminal for a socket: the peer closed with a
	// designated normal code and no reconnect is attempted.
	StateClosedNormal

	// StateClosedAbnormal means the last socket terminated abnormally and
	// the reconnect policy is running.
	StateClosedAbnormal

	// StateFallbackPolling is the durable degraded mode entered after the
	// reconnect budget is exhausted. It is not tied to one socket: the
	// periodic full-reconnect cycle keeps retrying the primary endpoint
	// while polling covers the data.
	StateFallbackPolling
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedNormal:
		return "closed"
	case StateClosedAbnormal:
		return "closed_abnormal"
	case StateFallbackPolling:
		return "fallback_polling"
	default:
		return "unknown"
	}
}

// Close codes that classify as a normal closure. Everything else, and any
// read error without a close frame, is abnormal.
const (
	closeNormal    = 1000
	closeGoingAway = 1001
)

func isNormalClose(code int) bool {
	return code == closeNormal || code == closeGoingAway
}

// eventKind identifies a socket event delivered to the run loop.
type eventKind int

const (
	evMessage eventKind = iota
	evError
	evClosed
)

// sockEvent is one socket callback. Events carry the generation of the
// socket that produced them; the run loop discards events from superseded
// sockets.
type sockEvent struct {
	gen  uint64
	kind eventKind
	data []byte
	code int
	err  error
}

// Config holds feed client settings. Delays are fixed constants, not a
// backoff schedule.
type Config struct {
	PrimaryURL        string
	SecondaryURL      string
	MaxAttempts       int
	ReconnectDelay    time.Duration
	FallbackInterval  time.Duration
	PeriodicReconnect time.Duration
	HandshakeTimeout  time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       10,
		ReconnectDelay:    3 * time.Second,
		FallbackInterval:  10 * time.Second,
		PeriodicReconnect: 30 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}
