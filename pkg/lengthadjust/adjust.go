// Package lengthadjust reconciles a packet's in-memory length against its
// original wire length and an output MTU: pad back up to the capture's
// original length, or truncate down to fit an MTU.
package lengthadjust

import (
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// Policy selects how Adjust reconciles length.
type Policy int

const (
	// PolicyNone leaves the buffer's length untouched.
	PolicyNone Policy = iota
	// PolicyPad grows the buffer up to originalLen with zero bytes, as for a
	// capture cut shorter than its wire length.
	PolicyPad
	// PolicyTruncate shrinks the buffer down to mtu if it now exceeds it.
	PolicyTruncate
)

// Adjust applies policy to buf. originalLen is the length PolicyPad pads up
// to (the pipeline passes the packet's current wire length, which already
// reflects earlier stages' FCS strip and L2 rewrite); mtu is the output
// interface's maximum frame size.
// It reports whether the buffer's length actually changed.
func Adjust(buf *common.PacketBuffer, policy Policy, originalLen, mtu int) (bool, error) {
	switch policy {
	case PolicyNone:
		return false, nil
	case PolicyPad:
		if buf.Len() >= originalLen {
			return false, nil
		}
		if err := buf.Resize(originalLen); err != nil {
			return false, fmt.Errorf("lengthadjust: pad to %d: %w", originalLen, err)
		}
		return true, nil
	case PolicyTruncate:
		if buf.Len() <= mtu {
			return false, nil
		}
		if err := buf.Resize(mtu); err != nil {
			return false, fmt.Errorf("lengthadjust: truncate to mtu %d: %w", mtu, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("lengthadjust: unknown policy %d", policy)
	}
}
