// Package ipv6 provides an in-place accessor for IPv6 headers (RFC 8200)
// living inside a shared packet buffer.
package ipv6

import (
	"encoding/binary"
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

const (
	// Version is the IP version number for IPv6.
	Version = 6

	// HeaderLength is the fixed IPv6 header length (40 bytes). Extension
	// headers, if any, are treated as opaque payload by this accessor.
	HeaderLength = 40
)

// View is a zero-copy accessor over an IPv6 header living at buf[off:].
type View struct {
	buf []byte
	off int
}

// NewView validates buf[off:] as an IPv6 header and returns a View over it.
func NewView(buf []byte, off int) (View, error) {
	if off < 0 || off+HeaderLength > len(buf) {
		return View{}, fmt.Errorf("ipv6: buffer too short for header at offset %d", off)
	}
	version := buf[off] >> 4
	if version != Version {
		return View{}, fmt.Errorf("ipv6: unexpected version %d", version)
	}
	return View{buf: buf, off: off}, nil
}

func (v View) header() []byte { return v.buf[v.off : v.off+HeaderLength] }

// TrafficClass returns the 8-bit traffic class field.
func (v View) TrafficClass() uint8 {
	return uint8(binary.BigEndian.Uint32(v.header()[0:4]) >> 20)
}

// SetTrafficClass overwrites the traffic class field in place.
func (v View) SetTrafficClass(tc uint8) {
	h := v.header()
	word := binary.BigEndian.Uint32(h[0:4])
	word = (word & 0xF00FFFFF) | (uint32(tc) << 20)
	binary.BigEndian.PutUint32(h[0:4], word)
}

// FlowLabel returns the 20-bit flow label field.
func (v View) FlowLabel() uint32 {
	return binary.BigEndian.Uint32(v.header()[0:4]) & 0xFFFFF
}

// SetFlowLabel overwrites the 20-bit flow label field in place; the value
// is masked to 20 bits.
func (v View) SetFlowLabel(fl uint32) {
	h := v.header()
	word := binary.BigEndian.Uint32(h[0:4])
	word = (word &^ 0xFFFFF) | (fl & 0xFFFFF)
	binary.BigEndian.PutUint32(h[0:4], word)
}

// PayloadLength returns the Payload Length field (bytes following this
// header, including any extension headers).
func (v View) PayloadLength() uint16 { return binary.BigEndian.Uint16(v.header()[4:6]) }

// SetPayloadLength overwrites the Payload Length field in place.
func (v View) SetPayloadLength(n uint16) { binary.BigEndian.PutUint16(v.header()[4:6], n) }

// NextHeader returns the Next Header field.
func (v View) NextHeader() common.Protocol { return common.Protocol(v.header()[6]) }

// HopLimit returns the Hop Limit field (IPv6's analogue of IPv4 TTL).
func (v View) HopLimit() uint8 { return v.header()[7] }

// SetHopLimit overwrites the Hop Limit field in place.
func (v View) SetHopLimit(hl uint8) { v.header()[7] = hl }

// Source returns the source address.
func (v View) Source() common.IPv6Address {
	var ip common.IPv6Address
	copy(ip[:], v.header()[8:24])
	return ip
}

// SetSource overwrites the source address in place.
func (v View) SetSource(ip common.IPv6Address) { copy(v.header()[8:24], ip[:]) }

// Destination returns the destination address.
func (v View) Destination() common.IPv6Address {
	var ip common.IPv6Address
	copy(ip[:], v.header()[24:40])
	return ip
}

// SetDestination overwrites the destination address in place.
func (v View) SetDestination(ip common.IPv6Address) { copy(v.header()[24:40], ip[:]) }

// Payload returns the bytes following the fixed header, to the end of buf.
func (v View) Payload() []byte { return v.buf[v.off+HeaderLength:] }

// PayloadN returns up to n bytes of payload, clamped to what buf actually
// holds.
func (v View) PayloadN(n int) []byte {
	start := v.off + HeaderLength
	end := start + n
	if end > len(v.buf) {
		end = len(v.buf)
	}
	if start > end {
		return nil
	}
	return v.buf[start:end]
}

// String returns a human-readable summary of the header.
func (v View) String() string {
	return fmt.Sprintf("IPv6{%s -> %s, Next=%s, HopLimit=%d, PayloadLen=%d}",
		v.Source(), v.Destination(), v.NextHeader(), v.HopLimit(), v.PayloadLength())
}
