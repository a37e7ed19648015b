package controller

import (
	"errors"
	"fmt"

	"tinyboard/internal/authority"
	"tinyboard/internal/rules"
)

// Kind classifies controller failures.
type Kind uint8

const (
	// InputRejected is a gesture outside AwaitingHumanInput or failing the local precheck.
	// It is never shown to the user.
	InputRejected Kind = iota + 1
	// MoveRejected means the authority refused a submitted move.
	MoveRejected
	// OpponentMoveFailed means the opponent request errored out.
	OpponentMoveFailed
	// TransportFailure is a network or decoding failure on either call.
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case InputRejected:
		return "input rejected"
	case MoveRejected:
		return "move rejected"
	case OpponentMoveFailed:
		return "opponent move failed"
	case TransportFailure:
		return "transport failure"
	}
	return "unknown"
}

// Error is returned by every controller operation that did not complete.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind and no wrapped cause, so the package
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Op == "" && t.Kind == e.Kind
}

var (
	// ErrInputRejected matches any InputRejected error.
	ErrInputRejected = &Error{Kind: InputRejected}
	// ErrMoveRejected matches any MoveRejected error.
	ErrMoveRejected = &Error{Kind: MoveRejected}
	// ErrOpponentMoveFailed matches any OpponentMoveFailed error.
	ErrOpponentMoveFailed = &Error{Kind: OpponentMoveFailed}
	// ErrTransportFailure matches any TransportFailure error.
	ErrTransportFailure = &Error{Kind: TransportFailure}

	// ErrSuperseded is returned when a response arrives for a session that a newer game
	// replaced. The response is dropped without touching state.
	ErrSuperseded = errors.New("response belongs to a superseded session")
)

// KindOf extracts the Kind of err, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func rejectInput(op, format string, args ...any) error {
	return &Error{Kind: InputRejected, Op: op, Err: fmt.Errorf(format, args...)}
}

// classify maps an authority or decode failure onto a Kind; fallback names the call.
func classify(err error, fallback Kind) Kind {
	if errors.Is(err, authority.ErrTransport) || errors.Is(err, rules.ErrInvalidFEN) {
		return TransportFailure
	}
	return fallback
}

// reason is the short text shown in a notice.
func reason(err error) string {
	var re *authority.RequestError
	if errors.As(err, &re) && re.Reason != "" {
		return re.Reason
	}
	return err.Error()
}
