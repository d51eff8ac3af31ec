package mbus

import "fmt"

// Kind classifies a parse/decode/usage failure per the taxonomy of
// spec §7. It is a plain byte enum, in the style of the modbus
// Exception type: comparable, cheap, and renders a human string via
// String().
type Kind byte

const (
	_ Kind = iota
	// KindFraming covers unknown start byte, L1≠L2, bad stop byte,
	// checksum mismatch, unknown control code.
	KindFraming
	// KindNeedMore is not a real error; callers type-switch the parse
	// outcome instead of comparing this, but it is listed here for
	// completeness of String().
	KindNeedMore
	// KindTimeout: recv returned nothing within the transport deadline.
	KindTimeout
	// KindInvalidReply: parsed, but wrong direction/CI/content for the
	// outstanding request.
	KindInvalidReply
	// KindCollision: secondary-scan probe saw more than one responder.
	KindCollision
	// KindDecode: DIF/VIF combination unrecognised, LVAR out of range,
	// string longer than its record capacity.
	KindDecode
	// KindUsage: invalid primary address, malformed secondary mask,
	// option out of range. Caller error, bus untouched.
	KindUsage
	// KindTransport: the underlying I/O failed; propagated verbatim.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindFraming:
		return "framing error"
	case KindNeedMore:
		return "need more data"
	case KindTimeout:
		return "timeout"
	case KindInvalidReply:
		return "invalid reply"
	case KindCollision:
		return "collision"
	case KindDecode:
		return "decode error"
	case KindUsage:
		return "usage error"
	case KindTransport:
		return "transport error"
	}
	return fmt.Sprintf("kind %d", byte(k))
}

// Error is the structured error value every fallible mbus operation
// returns. Expected/Actual are optional and rendered only when both are
// set, e.g. "mbus: framing error: checksum (expected 0x42, got 0x17)".
type Error struct {
	Kind     Kind
	Message  string
	Expected *int
	Actual   *int
}

func (e *Error) Error() string {
	if e.Expected != nil && e.Actual != nil {
		return fmt.Sprintf("mbus: %s: %s (expected 0x%02x, got 0x%02x)", e.Kind, e.Message, *e.Expected, *e.Actual)
	}
	return fmt.Sprintf("mbus: %s: %s", e.Kind, e.Message)
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func mismatch(kind Kind, msg string, expected, actual int) *Error {
	return &Error{Kind: kind, Message: msg, Expected: &expected, Actual: &actual}
}
