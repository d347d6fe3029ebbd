package dlt

import (
	"encoding/binary"
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// linuxSLLHeaderLength is the size of a Linux "cooked" capture header (16
// bytes): 2-byte packet type, 2-byte ARPHRD_ type, 2-byte address length,
// 8-byte padded link address, 2-byte protocol type.
const linuxSLLHeaderLength = 16

// linuxSLLPacketTypeHost is the packet-type value meaning "addressed to us".
const linuxSLLPacketTypeHost = 0

// linuxSLLARPHRDEthernet is the ARPHRD_ETHER hardware-type value.
const linuxSLLARPHRDEthernet = 1

// LinuxSLLPlugin decodes and encodes Linux "cooked capture" framing, seen
// when libpcap captures on an interface with no single concrete link type
// (e.g. "any").
type LinuxSLLPlugin struct{}

// NewLinuxSLLPlugin returns the Linux cooked-capture plugin.
func NewLinuxSLLPlugin() *LinuxSLLPlugin { return &LinuxSLLPlugin{} }

// LinkType implements Plugin.
func (p *LinuxSLLPlugin) LinkType() LinkType { return LinkTypeLinuxSLL }

// Capabilities implements Plugin.
func (p *LinuxSLLPlugin) Capabilities() Capability {
	return CapDecode | CapEncode | CapL2Length | CapL3Data
}

// Decode implements Plugin.
func (p *LinuxSLLPlugin) Decode(buf *common.PacketBuffer) (DecodedL2, Result, error) {
	data := buf.Bytes()
	if len(data) < linuxSLLHeaderLength {
		return DecodedL2{}, ResultError, fmt.Errorf("dlt/linuxsll: frame too short: %d bytes", len(data))
	}
	ethType := common.EtherType(binary.BigEndian.Uint16(data[14:16]))
	return DecodedL2{L3Offset: linuxSLLHeaderLength, L3Proto: ethType}, ResultOK, nil
}

// L2Length implements Plugin.
func (p *LinuxSLLPlugin) L2Length(buf *common.PacketBuffer) (int, error) {
	if buf.Len() < linuxSLLHeaderLength {
		return 0, fmt.Errorf("dlt/linuxsll: frame too short: %d bytes", buf.Len())
	}
	return linuxSLLHeaderLength, nil
}

// Encode implements Plugin. The link address fields carry no information
// this editor's pipeline stages modify, so a synthesized header always
// declares a zero-length, host-directed, Ethernet-typed link address.
func (p *LinuxSLLPlugin) Encode(buf *common.PacketBuffer, oldL3Offset int, l3Proto common.EtherType) (int, Result, error) {
	if oldL3Offset == linuxSLLHeaderLength {
		data := buf.Bytes()
		binary.BigEndian.PutUint16(data[14:16], uint16(l3Proto))
		return linuxSLLHeaderLength, ResultOK, nil
	}

	delta := linuxSLLHeaderLength - oldL3Offset
	if delta > 0 {
		if err := buf.GrowAtFront(delta); err != nil {
			return 0, ResultError, fmt.Errorf("dlt/linuxsll: %w", err)
		}
	} else if delta < 0 {
		if err := buf.ShrinkAtFront(-delta); err != nil {
			return 0, ResultError, fmt.Errorf("dlt/linuxsll: %w", err)
		}
	}

	data := buf.Bytes()
	binary.BigEndian.PutUint16(data[0:2], linuxSLLPacketTypeHost)
	binary.BigEndian.PutUint16(data[2:4], linuxSLLARPHRDEthernet)
	binary.BigEndian.PutUint16(data[4:6], 0)
	for i := 6; i < 14; i++ {
		data[i] = 0
	}
	binary.BigEndian.PutUint16(data[14:16], uint16(l3Proto))
	return linuxSLLHeaderLength, ResultOK, nil
}
