// Package transport provides offset-based accessors and checksum fixups
// for the upper-layer protocols the editor rewrites ports and checksums
// for: TCP, UDP, ICMPv4 and ICMPv6. Unlike the L3 packages, these operate
// directly on a header byte slice rather than wrapping it in a View type,
// since the only fields the pipeline ever touches are ports and checksums.
package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// TCP header field offsets (RFC 793). TCPMinHeaderLength covers the fixed
// part of the header; options (if any) follow.
const (
	TCPSrcPortOffset   = 0
	TCPDstPortOffset   = 2
	TCPChecksumOffset  = 16
	TCPMinHeaderLength = 20
)

// UDP header field offsets (RFC 768).
const (
	UDPSrcPortOffset  = 0
	UDPDstPortOffset  = 2
	UDPLengthOffset   = 4
	UDPChecksumOffset = 6
	UDPHeaderLength   = 8
)

// ICMP header field offsets (RFC 792, and RFC 4443 for ICMPv6).
const (
	ICMPChecksumOffset  = 2
	ICMPMinHeaderLength = 8
)

// SourcePort reads the big-endian source port field (offset 0, shared by TCP
// and UDP).
func SourcePort(header []byte) uint16 { return binary.BigEndian.Uint16(header[TCPSrcPortOffset:]) }

// SetSourcePort writes a big-endian source port field (offset 0, shared by
// TCP and UDP).
func SetSourcePort(header []byte, port uint16) {
	binary.BigEndian.PutUint16(header[TCPSrcPortOffset:], port)
}

// DestinationPort reads the destination port field (offset 2, shared by TCP
// and UDP).
func DestinationPort(header []byte) uint16 { return binary.BigEndian.Uint16(header[TCPDstPortOffset:]) }

// SetDestinationPort writes the destination port field.
func SetDestinationPort(header []byte, port uint16) {
	binary.BigEndian.PutUint16(header[TCPDstPortOffset:], port)
}

// FixupTCPIPv4 recomputes and writes the TCP checksum over an IPv4
// pseudo-header plus the full TCP segment (header + payload).
func FixupTCPIPv4(segment []byte, src, dst common.IPv4Address, declaredLength int) common.ChecksumResult {
	return fixupChecksum(segment, TCPChecksumOffset, func(data []byte) common.ChecksumResult {
		ph := common.PseudoHeader{SourceAddr: src, DestinationAddr: dst, Protocol: common.ProtocolTCP, Length: uint16(len(data))}
		return common.FixupTransportIPv4(ph, data, declaredLength)
	})
}

// FixupTCPIPv6 is the IPv6 equivalent of FixupTCPIPv4.
func FixupTCPIPv6(segment []byte, src, dst common.IPv6Address, declaredLength int) common.ChecksumResult {
	return fixupChecksum(segment, TCPChecksumOffset, func(data []byte) common.ChecksumResult {
		ph := common.PseudoHeaderV6{SourceAddr: src, DestinationAddr: dst, Protocol: common.ProtocolTCP, Length: uint32(len(data))}
		return common.FixupTransportIPv6(ph, data, declaredLength)
	})
}

// FixupUDPIPv4 recomputes and writes the UDP checksum. Per RFC 768, a
// computed checksum of exactly 0 is transmitted as 0xFFFF since 0 means "no
// checksum" in IPv4.
func FixupUDPIPv4(datagram []byte, src, dst common.IPv4Address, declaredLength int) common.ChecksumResult {
	result := fixupChecksum(datagram, UDPChecksumOffset, func(data []byte) common.ChecksumResult {
		ph := common.PseudoHeader{SourceAddr: src, DestinationAddr: dst, Protocol: common.ProtocolUDP, Length: uint16(len(data))}
		return common.FixupTransportIPv4(ph, data, declaredLength)
	})
	if result.Value == 0 {
		result.Value = 0xFFFF
		binary.BigEndian.PutUint16(datagram[UDPChecksumOffset:], result.Value)
	}
	return result
}

// FixupUDPIPv6 is the IPv6 equivalent of FixupUDPIPv4. RFC 8200 makes the
// UDP checksum mandatory over IPv6, so no all-zero placeholder applies.
func FixupUDPIPv6(datagram []byte, src, dst common.IPv6Address, declaredLength int) common.ChecksumResult {
	return fixupChecksum(datagram, UDPChecksumOffset, func(data []byte) common.ChecksumResult {
		ph := common.PseudoHeaderV6{SourceAddr: src, DestinationAddr: dst, Protocol: common.ProtocolUDP, Length: uint32(len(data))}
		return common.FixupTransportIPv6(ph, data, declaredLength)
	})
}

// FixupICMPv4 recomputes and writes the ICMPv4 checksum, which (unlike
// ICMPv6) covers only the ICMP message itself -- no pseudo-header.
func FixupICMPv4(message []byte, declaredLength int) common.ChecksumResult {
	return fixupChecksum(message, ICMPChecksumOffset, func(data []byte) common.ChecksumResult {
		return common.FixupIPv4(data, declaredLength)
	})
}

// FixupICMPv6 recomputes and writes the ICMPv6 checksum, which RFC 4443
// mandates be computed over the IPv6 pseudo-header plus the ICMP message.
func FixupICMPv6(message []byte, src, dst common.IPv6Address, declaredLength int) common.ChecksumResult {
	return fixupChecksum(message, ICMPChecksumOffset, func(data []byte) common.ChecksumResult {
		ph := common.PseudoHeaderV6{SourceAddr: src, DestinationAddr: dst, Protocol: common.ProtocolICMPv6, Length: uint32(len(data))}
		return common.FixupTransportIPv6(ph, data, declaredLength)
	})
}

// fixupChecksum zeroes the checksum field at checksumOffset, invokes
// compute over the resulting bytes, and writes the result back in place.
func fixupChecksum(data []byte, checksumOffset int, compute func([]byte) common.ChecksumResult) common.ChecksumResult {
	if checksumOffset+2 > len(data) {
		panic(fmt.Sprintf("transport: checksum offset %d out of range for %d-byte header", checksumOffset, len(data)))
	}
	data[checksumOffset], data[checksumOffset+1] = 0, 0
	result := compute(data)
	binary.BigEndian.PutUint16(data[checksumOffset:checksumOffset+2], result.Value)
	return result
}
