// Package dlt implements the link-layer (Data Link Type) plugin registry:
// each plugin knows how to decode a specific link-layer header down to
// where the network-layer payload begins, and how to (re-)encode one when
// the editor's output link type differs from the input's.
package dlt

import (
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// LinkType identifies a link-layer encapsulation, numbered the same way
// libpcap's DLT_* constants are.
type LinkType int

const (
	// LinkTypeEthernet is DLT_EN10MB, standard Ethernet II framing.
	LinkTypeEthernet LinkType = 1
	// LinkTypeRaw is DLT_RAW: no link-layer header, the capture starts
	// directly at the IP header.
	LinkTypeRaw LinkType = 12
	// LinkTypeIEEE80211 is DLT_IEEE802_11, raw 802.11 frames.
	LinkTypeIEEE80211 LinkType = 105
	// LinkTypeLinuxSLL is DLT_LINUX_SLL, Linux "cooked" capture framing
	// used when libpcap has no real link layer to show (e.g. the "any"
	// interface).
	LinkTypeLinuxSLL LinkType = 113
)

// String returns a human-readable name for the link type.
func (lt LinkType) String() string {
	switch lt {
	case LinkTypeEthernet:
		return "EN10MB"
	case LinkTypeRaw:
		return "RAW"
	case LinkTypeIEEE80211:
		return "IEEE802_11"
	case LinkTypeLinuxSLL:
		return "LINUX_SLL"
	default:
		return fmt.Sprintf("Unknown(%d)", int(lt))
	}
}

// Capability is a bitset describing what operations a Plugin supports.
type Capability uint8

const (
	// CapDecode means the plugin can locate L3 inside a captured frame.
	CapDecode Capability = 1 << iota
	// CapEncode means the plugin can (re-)write its link-layer header,
	// including when translating from a different input link type.
	CapEncode
	// CapL2Length means the plugin can report its header length for a
	// frame without fully decoding it.
	CapL2Length
	// CapL3Data means the plugin exposes L3 as an aliasing view rather
	// than a copy -- true for every plugin in this package, since none of
	// them targets an alignment-sensitive architecture.
	CapL3Data
	// CapMergeL3 means a view obtained through L3Data must be merged back
	// with an explicit call after mutation (aligned-copy architectures
	// only; a no-op everywhere this package runs).
	CapMergeL3
)

// Has reports whether cap is present in the capability set.
func (c Capability) Has(cap Capability) bool { return c&cap != 0 }

// Result classifies the outcome of a decode or encode operation.
type Result int

const (
	// ResultOK indicates success.
	ResultOK Result = iota
	// ResultSoftError indicates the plugin recognized the frame but
	// cannot rewrite it deterministically (e.g. an 802.11 management
	// frame) -- the pipeline should drop the packet, not abort the run.
	ResultSoftError
	// ResultError indicates a malformed frame the plugin cannot process
	// at all.
	ResultError
)

// DecodedL2 describes the outcome of decoding a link-layer header: where
// the network-layer payload begins and what ethertype/protocol it carries.
type DecodedL2 struct {
	L3Offset int
	L3Proto  common.EtherType
}

// Plugin is a link-layer codec. Implementations never allocate a new
// backing array for buf themselves -- growing or shrinking the frame is
// done through buf.GrowAtFront/ShrinkAtFront, which requires the caller to
// have reserved sufficient headroom up front (see capture.Record).
type Plugin interface {
	// LinkType returns the libpcap-numbered link type this plugin handles.
	LinkType() LinkType

	// Capabilities returns the set of operations this plugin supports.
	Capabilities() Capability

	// Decode inspects the link-layer header starting at offset 0 in buf
	// and reports where L3 begins and what it is.
	Decode(buf *common.PacketBuffer) (DecodedL2, Result, error)

	// L2Length reports the current link-layer header length in buf
	// without full decoding. For fixed-length encapsulations this is a
	// constant; for 802.11 it is the base header, plus address 4 when both
	// ToDS and FromDS are set, plus the SNAP header (frame types the plugin
	// cannot decode, including QoS data frames, return an error).
	L2Length(buf *common.PacketBuffer) (int, error)

	// Encode rewrites buf's link-layer header in place so that it matches
	// this plugin's link type and carries l3Proto, growing or shrinking
	// buf's front as needed relative to oldL3Offset (the L3 offset before
	// this call, from the input plugin's Decode or object's prior state).
	// Returns the new L3 offset.
	Encode(buf *common.PacketBuffer, oldL3Offset int, l3Proto common.EtherType) (newL3Offset int, result Result, err error)
}
