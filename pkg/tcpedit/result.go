package tcpedit

import "fmt"

// Result classifies the outcome of editing a single packet.
type Result int

const (
	// ResultUnchanged means the packet was returned byte-identical: no
	// stage fired, or every stage that ran was a no-op.
	ResultUnchanged Result = iota
	// ResultChanged means the packet was edited; lengths may differ from
	// the input.
	ResultChanged
	// ResultWarn means the packet was edited and is usable, but a
	// non-fatal condition was latched onto the session's warning string
	// (e.g. a checksum computed over a truncated capture).
	ResultWarn
	// ResultSoftError means this packet should be dropped; the session
	// itself is still healthy and the caller should continue with the
	// next packet.
	ResultSoftError
	// ResultError is fatal for this packet: the session's error string
	// is latched and the caller decides whether to abort the run.
	ResultError
)

// String returns a human-readable name for the result.
func (r Result) String() string {
	switch r {
	case ResultUnchanged:
		return "unchanged"
	case ResultChanged:
		return "changed"
	case ResultWarn:
		return "warn"
	case ResultSoftError:
		return "soft-error"
	case ResultError:
		return "error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}
