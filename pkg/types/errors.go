package types

import "errors"

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindUnknown  ErrKind = iota // not a paramkit error
	ErrKindNotFound                // missing param, row id or index
	ErrKindStack                   // named patch stack order violated
	ErrKindProtocol                // row patch session used out of order
	ErrKindFormat                  // malformed caller input
	ErrKindCorrupt                 // table layout inconsistent with its buffer
	ErrKindState                   // operation invalid for current state
)

// String implements fmt.Stringer.
func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not-found"
	case ErrKindStack:
		return "stack"
	case ErrKindProtocol:
		return "protocol"
	case ErrKindFormat:
		return "format"
	case ErrKindCorrupt:
		return "corrupt"
	case ErrKindState:
		return "state"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind and message, so a sentinel wrapped
// with extra context by Wrap still compares equal to the bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Msg: sentinel.Msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// Sentinels commonly returned by implementations.
var (
	// ErrNotFound indicates a missing param, row id, row index or patch.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrPatchShadowed indicates a named patch exists but is not top-of-stack.
	ErrPatchShadowed = &Error{Kind: ErrKindStack, Msg: "patch is shadowed by a newer patch"}
	// ErrRestoreShadowed indicates a restore would overwrite rows still held by a newer patch.
	ErrRestoreShadowed = &Error{Kind: ErrKindStack, Msg: "restore overlaps rows edited by a newer patch"}
	// ErrProtocol indicates begin/finalize were called out of order.
	ErrProtocol = &Error{Kind: ErrKindProtocol, Msg: "row patch protocol violated"}
	// ErrLockReleased indicates a patch operation on a released lock token.
	ErrLockReleased = &Error{Kind: ErrKindProtocol, Msg: "patch lock not held"}
	// ErrInvalidName indicates an empty or malformed patch or param name.
	ErrInvalidName = &Error{Kind: ErrKindFormat, Msg: "invalid name"}
	// ErrCorrupt indicates a table whose descriptors do not fit its buffer.
	ErrCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt param table"}
	// ErrStaleTable indicates the table an edit was recorded against has been replaced.
	ErrStaleTable = &Error{Kind: ErrKindState, Msg: "param table was replaced"}
	// ErrReadonly indicates a mutation was attempted on a read-only mapping.
	ErrReadonly = &Error{Kind: ErrKindState, Msg: "param table is read-only"}
)
