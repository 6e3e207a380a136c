package cache

import (
	"errors"
	"strings"
	"time"
)

// DefaultFailureMessage is recorded when a failed operation carries no message.
const DefaultFailureMessage = "Request failed"

// Sentinel errors for cache operations.
var (
	ErrUnserializableArg  = errors.New("cache: argument cannot be serialized")
	ErrDuplicateOperation = errors.New("cache: operation already registered")
	ErrInvalidName        = errors.New("cache: name is invalid")
	ErrNilFeature         = errors.New("cache: feature is nil")
)

// Phase is the lifecycle stage an Event reports.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends a request.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseFailure
}

// Event is emitted by an operation run and consumed by a Store.
type Event struct {
	// Op is the fully qualified operation name (feature/operation).
	Op string

	// Key is the cache key derived from Op and the run's argument.
	Key string

	// Seq identifies the request. Start events receive it from the store;
	// terminal events must carry the value their Start returned.
	Seq uint64

	Phase Phase

	// Payload is the result of a successful run.
	Payload any

	// Message is the failure message of a failed run.
	Message string
}

// Start builds a start event.
func Start(op, key string) Event {
	return Event{Op: op, Key: key, Phase: PhaseStart}
}

// Success builds a success event for the request identified by seq.
func Success(op, key string, seq uint64, payload any) Event {
	return Event{Op: op, Key: key, Seq: seq, Phase: PhaseSuccess, Payload: payload}
}

// Failure builds a failure event for the request identified by seq.
func Failure(op, key string, seq uint64, message string) Event {
	return Event{Op: op, Key: key, Seq: seq, Phase: PhaseFailure, Message: message}
}

// Entry is the read view of one cache key.
type Entry struct {
	// Data is the last successful payload. Only meaningful when HasData.
	Data    any
	HasData bool
	Loading bool

	// Error is the last failure message; empty means no error.
	Error string

	// UpdatedAt is when Data was last written.
	UpdatedAt time.Time
}

// FailureMessage extracts the message recorded for a failed run.
// Errors exposing UserMessage() take precedence over Error().
func FailureMessage(err error) string {
	if err == nil {
		return DefaultFailureMessage
	}
	var um interface{ UserMessage() string }
	msg := ""
	if errors.As(err, &um) {
		msg = um.UserMessage()
	} else {
		msg = err.Error()
	}
	if strings.TrimSpace(msg) == "" {
		return DefaultFailureMessage
	}
	return msg
}
