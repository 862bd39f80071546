package notify

import "time"

// Kind classifies a delivery failure. Retry behavior is decided purely by
// the kind: rate limits are retried with backoff, unresolved channels
// exclude the item, everything else aborts the run.
type Kind int

const (
	KindFatal Kind = iota
	KindRateLimited
	KindUnresolved
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRateLimited:
		return "rate_limited"
	case KindUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Error is a delivery failure tagged with its kind. RetryAfter carries the
// explicit wait hint of a rate-limit response; zero means no hint was given
// and the sender falls back to its own backoff.
type Error struct {
	Kind       Kind
	RetryAfter time.Duration
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}
