// Package arp provides an in-place accessor for Ethernet/IPv4 ARP packets
// (RFC 826) living inside a shared packet buffer.
package arp

import (
	"encoding/binary"
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// ARP packet format (RFC 826):
//
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|        Hardware Type          |        Protocol Type          |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	| HW Addr Len | Proto Addr Len|          Operation            |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                 Sender Hardware Address (6 bytes)             |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                 Sender Protocol Address (4 bytes)             |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                 Target Hardware Address (6 bytes)             |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                 Target Protocol Address (4 bytes)             |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
const (
	// PacketLength is the size of an ARP packet for Ethernet/IPv4 (28 bytes).
	PacketLength = 28

	// HardwareTypeEthernet represents Ethernet hardware type.
	HardwareTypeEthernet = 1

	// ProtocolTypeIPv4 represents IPv4 protocol type (same as EtherType).
	ProtocolTypeIPv4 = 0x0800
)

// Operation represents the ARP operation type.
type Operation uint16

const (
	// OperationRequest is an ARP request (who has this IP?).
	OperationRequest Operation = 1

	// OperationReply is an ARP reply (I have this IP, here's my MAC).
	OperationReply Operation = 2
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OperationRequest:
		return "Request"
	case OperationReply:
		return "Reply"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(op))
	}
}

// View is a zero-copy accessor over an ARP packet living at buf[off:].
// The editor only ever rewrites the address fields of an ARP packet (it has
// no length-changing stages of its own, unlike IPv4/IPv6), so View carries
// no separate length field: the packet is always exactly PacketLength bytes.
type View struct {
	buf []byte
	off int
}

// NewView validates buf[off:] as an Ethernet/IPv4 ARP packet.
func NewView(buf []byte, off int) (View, error) {
	if off < 0 || off+PacketLength > len(buf) {
		return View{}, fmt.Errorf("arp: buffer too short for packet at offset %d", off)
	}
	v := View{buf: buf, off: off}
	if v.HardwareType() != HardwareTypeEthernet {
		return View{}, fmt.Errorf("arp: unsupported hardware type %d", v.HardwareType())
	}
	if v.ProtocolType() != ProtocolTypeIPv4 {
		return View{}, fmt.Errorf("arp: unsupported protocol type 0x%04x", v.ProtocolType())
	}
	if v.HardwareLength() != 6 {
		return View{}, fmt.Errorf("arp: invalid hardware address length %d", v.HardwareLength())
	}
	if v.ProtocolLength() != 4 {
		return View{}, fmt.Errorf("arp: invalid protocol address length %d", v.ProtocolLength())
	}
	return v, nil
}

func (v View) header() []byte { return v.buf[v.off : v.off+PacketLength] }

// HardwareType returns the hardware type field.
func (v View) HardwareType() uint16 { return binary.BigEndian.Uint16(v.header()[0:2]) }

// ProtocolType returns the protocol type field.
func (v View) ProtocolType() uint16 { return binary.BigEndian.Uint16(v.header()[2:4]) }

// HardwareLength returns the hardware address length field.
func (v View) HardwareLength() uint8 { return v.header()[4] }

// ProtocolLength returns the protocol address length field.
func (v View) ProtocolLength() uint8 { return v.header()[5] }

// Op returns the operation field (request or reply).
func (v View) Op() Operation { return Operation(binary.BigEndian.Uint16(v.header()[6:8])) }

// SenderMAC returns the sender hardware address.
func (v View) SenderMAC() common.MACAddress {
	var mac common.MACAddress
	copy(mac[:], v.header()[8:14])
	return mac
}

// SetSenderMAC overwrites the sender hardware address in place.
func (v View) SetSenderMAC(mac common.MACAddress) { copy(v.header()[8:14], mac[:]) }

// SenderIP returns the sender protocol address.
func (v View) SenderIP() common.IPv4Address {
	var ip common.IPv4Address
	copy(ip[:], v.header()[14:18])
	return ip
}

// SetSenderIP overwrites the sender protocol address in place.
func (v View) SetSenderIP(ip common.IPv4Address) { copy(v.header()[14:18], ip[:]) }

// TargetMAC returns the target hardware address.
func (v View) TargetMAC() common.MACAddress {
	var mac common.MACAddress
	copy(mac[:], v.header()[18:24])
	return mac
}

// SetTargetMAC overwrites the target hardware address in place.
func (v View) SetTargetMAC(mac common.MACAddress) { copy(v.header()[18:24], mac[:]) }

// TargetIP returns the target protocol address.
func (v View) TargetIP() common.IPv4Address {
	var ip common.IPv4Address
	copy(ip[:], v.header()[24:28])
	return ip
}

// SetTargetIP overwrites the target protocol address in place.
func (v View) SetTargetIP(ip common.IPv4Address) { copy(v.header()[24:28], ip[:]) }

// IsRequest returns true if this is an ARP request.
func (v View) IsRequest() bool { return v.Op() == OperationRequest }

// IsReply returns true if this is an ARP reply.
func (v View) IsReply() bool { return v.Op() == OperationReply }

// String returns a human-readable representation of the packet.
func (v View) String() string {
	return fmt.Sprintf("ARP{Op=%s, Sender=%s(%s), Target=%s(%s)}",
		v.Op(), v.SenderIP(), v.SenderMAC(), v.TargetIP(), v.TargetMAC())
}
