package dlt

import (
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// RawPlugin handles DLT_RAW captures: no link-layer header at all, the
// capture starts directly at the IP header. The ethertype isn't carried on
// the wire, so Decode infers it from the IP version nibble.
type RawPlugin struct{}

// NewRawPlugin returns the raw-IP plugin.
func NewRawPlugin() *RawPlugin { return &RawPlugin{} }

// LinkType implements Plugin.
func (p *RawPlugin) LinkType() LinkType { return LinkTypeRaw }

// Capabilities implements Plugin.
func (p *RawPlugin) Capabilities() Capability {
	return CapDecode | CapEncode | CapL2Length | CapL3Data
}

// Decode implements Plugin.
func (p *RawPlugin) Decode(buf *common.PacketBuffer) (DecodedL2, Result, error) {
	data := buf.Bytes()
	if len(data) < 1 {
		return DecodedL2{}, ResultError, fmt.Errorf("dlt/raw: empty frame")
	}
	switch data[0] >> 4 {
	case 4:
		return DecodedL2{L3Offset: 0, L3Proto: common.EtherTypeIPv4}, ResultOK, nil
	case 6:
		return DecodedL2{L3Offset: 0, L3Proto: common.EtherTypeIPv6}, ResultOK, nil
	default:
		return DecodedL2{}, ResultError, fmt.Errorf("dlt/raw: unrecognized IP version nibble 0x%x", data[0]>>4)
	}
}

// L2Length implements Plugin. Raw captures have no link-layer header.
func (p *RawPlugin) L2Length(buf *common.PacketBuffer) (int, error) { return 0, nil }

// Encode implements Plugin: it shrinks away any existing link-layer header
// so that L3 starts at offset 0. l3Proto is accepted for interface symmetry
// but unused -- nothing on the wire records it.
func (p *RawPlugin) Encode(buf *common.PacketBuffer, oldL3Offset int, l3Proto common.EtherType) (int, Result, error) {
	if oldL3Offset == 0 {
		return 0, ResultOK, nil
	}
	if err := buf.ShrinkAtFront(oldL3Offset); err != nil {
		return 0, ResultError, fmt.Errorf("dlt/raw: %w", err)
	}
	return 0, ResultOK, nil
}
