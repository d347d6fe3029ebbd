// Package ipv4 provides an in-place accessor for IPv4 headers (RFC 791)
// living inside a shared packet buffer.
package ipv4

import (
	"encoding/binary"
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

const (
	// Version is the IP version number for IPv4.
	Version = 4

	// MinHeaderLength is the minimum IPv4 header length (20 bytes, IHL=5).
	MinHeaderLength = 20

	// MaxHeaderLength is the maximum IPv4 header length (60 bytes, IHL=15).
	MaxHeaderLength = 60
)

// View is a zero-copy accessor over an IPv4 header living at buf[off:].
// It aliases buf directly: every getter reads live bytes and every setter
// mutates them in place. A View is invalidated by anything that resizes or
// reallocates buf; callers that resize must call NewView again.
type View struct {
	buf    []byte
	off    int
	length int // IHL*4
}

// NewView validates buf[off:] as an IPv4 header and returns a View over it.
func NewView(buf []byte, off int) (View, error) {
	if off < 0 || off+MinHeaderLength > len(buf) {
		return View{}, fmt.Errorf("ipv4: buffer too short for header at offset %d", off)
	}
	verIHL := buf[off]
	version := verIHL >> 4
	if version != Version {
		return View{}, fmt.Errorf("ipv4: unexpected version %d", version)
	}
	ihl := verIHL & 0x0F
	if ihl < 5 {
		return View{}, fmt.Errorf("ipv4: invalid IHL %d", ihl)
	}
	length := int(ihl) * 4
	if off+length > len(buf) {
		return View{}, fmt.Errorf("ipv4: buffer too short for %d-byte header at offset %d", length, off)
	}
	return View{buf: buf, off: off, length: length}, nil
}

func (v View) header() []byte { return v.buf[v.off : v.off+v.length] }

// HeaderLength returns IHL*4, the header length in bytes.
func (v View) HeaderLength() int { return v.length }

// IHL returns the raw Internet Header Length field (in 32-bit words).
func (v View) IHL() uint8 { return v.header()[0] & 0x0F }

// TOS returns the combined DSCP+ECN byte (RFC 791's Type of Service field).
func (v View) TOS() uint8 { return v.header()[1] }

// SetTOS overwrites the Type of Service byte in place.
func (v View) SetTOS(tos uint8) { v.header()[1] = tos }

// TotalLength returns the Total Length field (header + payload, in bytes).
func (v View) TotalLength() uint16 { return binary.BigEndian.Uint16(v.header()[2:4]) }

// SetTotalLength overwrites the Total Length field in place.
func (v View) SetTotalLength(n uint16) { binary.BigEndian.PutUint16(v.header()[2:4], n) }

// TTL returns the Time To Live field.
func (v View) TTL() uint8 { return v.header()[8] }

// SetTTL overwrites the Time To Live field in place.
func (v View) SetTTL(ttl uint8) { v.header()[8] = ttl }

// Protocol returns the upper-layer protocol field.
func (v View) Protocol() common.Protocol { return common.Protocol(v.header()[9]) }

// Checksum returns the header checksum field as currently stored.
func (v View) Checksum() uint16 { return binary.BigEndian.Uint16(v.header()[10:12]) }

// SetChecksum overwrites the header checksum field in place.
func (v View) SetChecksum(c uint16) { binary.BigEndian.PutUint16(v.header()[10:12], c) }

// Source returns the source address.
func (v View) Source() common.IPv4Address {
	var ip common.IPv4Address
	copy(ip[:], v.header()[12:16])
	return ip
}

// SetSource overwrites the source address in place.
func (v View) SetSource(ip common.IPv4Address) { copy(v.header()[12:16], ip[:]) }

// Destination returns the destination address.
func (v View) Destination() common.IPv4Address {
	var ip common.IPv4Address
	copy(ip[:], v.header()[16:20])
	return ip
}

// SetDestination overwrites the destination address in place.
func (v View) SetDestination(ip common.IPv4Address) { copy(v.header()[16:20], ip[:]) }

// Options returns the IP options bytes, if any (IHL > 5).
func (v View) Options() []byte { return v.header()[MinHeaderLength:v.length] }

// Payload returns the bytes following the header, to the end of buf.
// Callers that need the payload bounded by the (possibly stale, on a
// truncated capture) TotalLength field should use PayloadN.
func (v View) Payload() []byte { return v.buf[v.off+v.length:] }

// PayloadN returns up to n bytes of payload, clamped to what buf actually
// holds -- the truncated-capture case the checksum kernel must tolerate.
func (v View) PayloadN(n int) []byte {
	end := v.off + v.length + n
	if end > len(v.buf) {
		end = len(v.buf)
	}
	start := v.off + v.length
	if start > end {
		return nil
	}
	return v.buf[start:end]
}

// Fixup recomputes the header checksum over the current header bytes and
// writes it back in place, returning whether the buffer was long enough to
// cover the full declared header.
func (v View) Fixup() common.ChecksumResult {
	h := v.header()
	h[10], h[11] = 0, 0
	result := common.FixupIPv4(h, v.length)
	binary.BigEndian.PutUint16(h[10:12], result.Value)
	return result
}

// String returns a human-readable summary of the header.
func (v View) String() string {
	return fmt.Sprintf("IPv4{%s -> %s, Proto=%s, TTL=%d, Len=%d}",
		v.Source(), v.Destination(), v.Protocol(), v.TTL(), v.TotalLength())
}
