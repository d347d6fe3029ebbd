package dlt

import (
	"encoding/binary"
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// ethernetHeaderLength is the size of an Ethernet II header (14 bytes):
// 6-byte destination MAC, 6-byte source MAC, 2-byte ethertype.
const ethernetHeaderLength = 14

// EthernetPlugin decodes and encodes standard Ethernet II framing.
// Destination/Source are used only when Encode must synthesize a header
// from scratch (translating from a link type with no MAC addresses of its
// own, e.g. raw IP); when the frame already carries an Ethernet header,
// Encode preserves its existing addresses and only rewrites the ethertype.
type EthernetPlugin struct {
	Destination common.MACAddress
	Source      common.MACAddress
}

// NewEthernetPlugin returns an Ethernet plugin with zero (to-be-configured)
// synthesized addresses.
func NewEthernetPlugin() *EthernetPlugin {
	return &EthernetPlugin{}
}

// SetAddresses configures the MAC addresses used when synthesizing a new
// Ethernet header (e.g. raw IP -> Ethernet translation).
func (p *EthernetPlugin) SetAddresses(dst, src common.MACAddress) {
	p.Destination = dst
	p.Source = src
}

// LinkType implements Plugin.
func (p *EthernetPlugin) LinkType() LinkType { return LinkTypeEthernet }

// Capabilities implements Plugin.
func (p *EthernetPlugin) Capabilities() Capability {
	return CapDecode | CapEncode | CapL2Length | CapL3Data
}

// Decode implements Plugin.
func (p *EthernetPlugin) Decode(buf *common.PacketBuffer) (DecodedL2, Result, error) {
	data := buf.Bytes()
	if len(data) < ethernetHeaderLength {
		return DecodedL2{}, ResultError, fmt.Errorf("dlt/ethernet: frame too short: %d bytes", len(data))
	}
	ethType := common.EtherType(binary.BigEndian.Uint16(data[12:14]))
	return DecodedL2{L3Offset: ethernetHeaderLength, L3Proto: ethType}, ResultOK, nil
}

// L2Length implements Plugin.
func (p *EthernetPlugin) L2Length(buf *common.PacketBuffer) (int, error) {
	if buf.Len() < ethernetHeaderLength {
		return 0, fmt.Errorf("dlt/ethernet: frame too short: %d bytes", buf.Len())
	}
	return ethernetHeaderLength, nil
}

// Encode implements Plugin. If the frame already has an Ethernet header at
// offset 0 (oldL3Offset == ethernetHeaderLength) it's preserved and only the
// ethertype is updated; otherwise a new header is grown at the front of buf
// using Destination/Source, and the old L2 bytes (now shifted right) are
// discarded by overwriting them.
func (p *EthernetPlugin) Encode(buf *common.PacketBuffer, oldL3Offset int, l3Proto common.EtherType) (int, Result, error) {
	if oldL3Offset == ethernetHeaderLength {
		data := buf.Bytes()
		binary.BigEndian.PutUint16(data[12:14], uint16(l3Proto))
		return ethernetHeaderLength, ResultOK, nil
	}

	delta := ethernetHeaderLength - oldL3Offset
	if delta > 0 {
		if err := buf.GrowAtFront(delta); err != nil {
			return 0, ResultError, fmt.Errorf("dlt/ethernet: %w", err)
		}
	} else if delta < 0 {
		if err := buf.ShrinkAtFront(-delta); err != nil {
			return 0, ResultError, fmt.Errorf("dlt/ethernet: %w", err)
		}
	}

	data := buf.Bytes()
	copy(data[0:6], p.Destination[:])
	copy(data[6:12], p.Source[:])
	binary.BigEndian.PutUint16(data[12:14], uint16(l3Proto))
	return ethernetHeaderLength, ResultOK, nil
}
