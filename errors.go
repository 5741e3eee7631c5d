package viking

import (
	"errors"
	"fmt"
)

// ErrorKind categorises the failures the driver surfaces to callers. It
// deliberately does not distinguish error *types*: attach, resource,
// configure and batch round-trip failures are all a *Error carrying one of
// these kinds, mirroring the "error kinds, not type names" framing of the
// wire protocol this package implements. Decoding and parsing helpers
// (ResponseBatch.Get, ParseTopology, FromEnv) return plain errors.
type ErrorKind int

const (
	// KindAttach covers enumeration, open, claim, descriptor-read and
	// descriptor-parse failures during Attach.
	KindAttach ErrorKind = iota
	// KindProtocolTooShort: a response packet was shorter than the 2-byte
	// [seq, status] header. A response region shorter than a handle's
	// declared length is reported by ResponseBatch.Get as a plain error.
	KindProtocolTooShort
	// KindProtocolSeqMismatch: response[0] did not equal the sequence byte
	// that was sent.
	KindProtocolSeqMismatch
	// KindProtocolDeviceStatus: response[1] (device status) was non-zero.
	KindProtocolDeviceStatus
	// KindUSB wraps a transport-level failure (a Transport method returned
	// an error).
	KindUSB
	// KindNotFound: Resource or mode lookup failed.
	KindNotFound
	// KindBusy: the requested resource is already held by a live handle.
	KindBusy
	// KindModeMismatch: a mode was found by name but its protocol number
	// does not match what the caller asked for.
	KindModeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindAttach:
		return "attach"
	case KindProtocolTooShort:
		return "protocol: response too short"
	case KindProtocolSeqMismatch:
		return "protocol: sequence mismatch"
	case KindProtocolDeviceStatus:
		return "protocol: device reported error status"
	case KindUSB:
		return "usb"
	case KindNotFound:
		return "not found"
	case KindBusy:
		return "busy"
	case KindModeMismatch:
		return "mode mismatch"
	default:
		return "unknown"
	}
}

// Error is the structured error type returned by attach, resource,
// configure and batch round-trip failures. Programming errors (caller contract violations such as
// an oversized payload) are not represented here — they panic instead, per
// the protocol's error handling design.
type Error struct {
	Op      string
	Kind    ErrorKind
	Status  uint8 // valid when Kind == KindProtocolDeviceStatus
	Inner   error
	message string
}

func (e *Error) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		if e.Inner != nil {
			return fmt.Sprintf("viking: %s: %s: %v", e.Op, msg, e.Inner)
		}
		return fmt.Sprintf("viking: %s: %s", e.Op, msg)
	}
	if e.Inner != nil {
		return fmt.Sprintf("viking: %s: %v", msg, e.Inner)
	}
	return fmt.Sprintf("viking: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is supports errors.Is against the sentinel *Error values below by
// comparing kinds, the same way a caller compares against a plain sentinel
// error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is comparisons. Only Kind is significant for
// equality; Op/Inner/Status are never compared.
var (
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrBusy        = &Error{Kind: KindBusy}
	ErrModeMismatch = &Error{Kind: KindModeMismatch}
)

func newAttachError(op string, inner error) *Error {
	return &Error{Op: op, Kind: KindAttach, Inner: inner}
}

func newUSBError(op string, inner error) *Error {
	return &Error{Op: op, Kind: KindUSB, Inner: inner}
}

func newProtocolTooShort(op string, gotLen int) *Error {
	return &Error{Op: op, Kind: KindProtocolTooShort, message: fmt.Sprintf("response length %d < 2", gotLen)}
}

func newProtocolSeqMismatch(op string, want, got uint8) *Error {
	return &Error{Op: op, Kind: KindProtocolSeqMismatch, message: fmt.Sprintf("want seq %d, got %d", want, got)}
}

func newProtocolDeviceStatus(op string, status uint8) *Error {
	return &Error{Op: op, Kind: KindProtocolDeviceStatus, Status: status, message: fmt.Sprintf("device status %d", status)}
}

func newNotFound(op, what string) *Error {
	return &Error{Op: op, Kind: KindNotFound, message: what}
}

func newBusy(op, what string) *Error {
	return &Error{Op: op, Kind: KindBusy, message: what}
}

func newModeMismatch(op, what string) *Error {
	return &Error{Op: op, Kind: KindModeMismatch, message: what}
}

// IsKind reports whether err (or something it wraps) is a *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind == k
	}
	return false
}
