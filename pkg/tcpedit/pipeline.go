// Package tcpedit implements the per-packet editing pipeline: an ordered
// sequence of link, network and transport layer rewrites driven by a
// Session's Config, terminating in a checksum fixup so the edited packet
// remains wire-valid.
package tcpedit

import (
	"fmt"

	"github.com/netrecast/tcpedit/pkg/arp"
	"github.com/netrecast/tcpedit/pkg/common"
	"github.com/netrecast/tcpedit/pkg/dlt"
	"github.com/netrecast/tcpedit/pkg/ipv4"
	"github.com/netrecast/tcpedit/pkg/ipv6"
	"github.com/netrecast/tcpedit/pkg/lengthadjust"
	"github.com/netrecast/tcpedit/pkg/transport"
)

// PacketRecord is the transient, per-call unit of work: a capture's wire
// length alongside the mutable buffer the pipeline edits in place. Buffer's
// logical length is the captured length; callers must reserve enough
// headroom (see common.NewPacketBufferWithHeadroom) for the DLT encoder to
// grow the link-layer header.
type PacketRecord struct {
	WireLength int
	Buffer     *common.PacketBuffer
}

// Edit runs the full editing pipeline over record for the given direction,
// mutating record.Buffer and record.WireLength in place. Editing a
// not-yet-Validated session is a programmer error and panics, per the
// error-handling design's rule that invariant violations never cross the
// pipeline boundary as an ordinary error.
func (s *Session) Edit(record *PacketRecord, direction common.Direction) (Result, error) {
	if !s.validated {
		panic("tcpedit: Edit called on a session that has not been Validated")
	}
	if record == nil || record.Buffer == nil {
		panic("tcpedit: Edit called with a nil packet record or buffer")
	}

	// Stage 1: counter bump.
	s.packetsSeen++
	buf := record.Buffer

	recompute := 0
	anyChange := false

	// Stage 2: FCS strip. No buffer edit -- the trailing bytes simply drop
	// out of the logical length and become unreferenced.
	if s.cfg.StripFCS {
		if buf.Len() < 4 {
			err := errorf("tcpedit: buffer too short to strip FCS: %d bytes", buf.Len())
			s.latchError(err)
			return ResultError, err
		}
		if rerr := buf.Resize(buf.Len() - 4); rerr != nil {
			err := errorf("tcpedit: stripping FCS: %v", rerr)
			s.latchError(err)
			return ResultError, err
		}
		record.WireLength -= 4
		anyChange = true
	}

	// Stage 3: L2 decode.
	decoded, decRes, decErr := s.decoder.Decode(buf)
	switch decRes {
	case dlt.ResultSoftError:
		err := errorf("tcpedit: L2 decode: %v", decErr)
		s.latchError(err)
		return ResultSoftError, err
	case dlt.ResultError:
		err := errorf("tcpedit: L2 decode: %v", decErr)
		s.latchError(err)
		return ResultError, err
	case dlt.ResultOK:
	default:
		panic(fmt.Sprintf("tcpedit: decoder returned unknown dlt.Result %d", decRes))
	}

	// Stage 4: L2 rewrite. The delta between the captured length before and
	// after Encode is applied to both captured and wire length.
	oldCapLen := buf.Len()
	newL3Offset, encRes, encErr := s.encoder.Encode(buf, decoded.L3Offset, decoded.L3Proto)
	switch encRes {
	case dlt.ResultSoftError:
		err := errorf("tcpedit: L2 rewrite: %v", encErr)
		s.latchError(err)
		return ResultSoftError, err
	case dlt.ResultError:
		err := errorf("tcpedit: L2 rewrite: %v", encErr)
		s.latchError(err)
		return ResultError, err
	case dlt.ResultOK:
	default:
		panic(fmt.Sprintf("tcpedit: encoder returned unknown dlt.Result %d", encRes))
	}
	if delta := buf.Len() - oldCapLen; delta != 0 {
		record.WireLength += delta
		anyChange = true
	}

	// Stage 5: L3 location.
	var (
		v4, v6, av              bool
		ipv4View                ipv4.View
		ipv6View                ipv6.View
		arpView                 arp.View
	)
	switch decoded.L3Proto {
	case common.EtherTypeIPv4:
		view, verr := ipv4.NewView(buf.Bytes(), newL3Offset)
		if verr != nil {
			err := errorf("tcpedit: locating IPv4 header: %v", verr)
			s.latchError(err)
			return ResultError, err
		}
		ipv4View, v4 = view, true
	case common.EtherTypeIPv6:
		view, verr := ipv6.NewView(buf.Bytes(), newL3Offset)
		if verr != nil {
			err := errorf("tcpedit: locating IPv6 header: %v", verr)
			s.latchError(err)
			return ResultError, err
		}
		ipv6View, v6 = view, true
	case common.EtherTypeARP:
		view, verr := arp.NewView(buf.Bytes(), newL3Offset)
		if verr != nil {
			err := errorf("tcpedit: locating ARP packet: %v", verr)
			s.latchError(err)
			return ResultError, err
		}
		arpView, av = view, true
	default:
		// No L3 present, or a protocol this editor doesn't rewrite. Not an
		// error: the remaining IP/ARP-specific stages are simply skipped.
	}

	// Stage 6: IPv4 field edits.
	if v4 {
		if s.cfg.TOS != nil && ipv4View.TOS() != *s.cfg.TOS {
			ipv4View.SetTOS(*s.cfg.TOS)
			recompute++
		}
		if s.cfg.TTLRule != nil {
			if newTTL := s.cfg.TTLRule.Apply(ipv4View.TTL()); newTTL != ipv4View.TTL() {
				ipv4View.SetTTL(newTTL)
				recompute++
			}
		}
		if len(s.cfg.PortMap) > 0 && isPortBearing(ipv4View.Protocol()) {
			if rewritePorts(ipv4View.Payload(), s.cfg.PortMap) {
				recompute++
			}
		}
	}

	// Stage 7: IPv6 field edits.
	if v6 {
		if s.cfg.TTLRule != nil {
			if newHL := s.cfg.TTLRule.Apply(ipv6View.HopLimit()); newHL != ipv6View.HopLimit() {
				ipv6View.SetHopLimit(newHL)
				recompute++
			}
		}
		if s.cfg.TrafficClass != nil && ipv6View.TrafficClass() != *s.cfg.TrafficClass {
			ipv6View.SetTrafficClass(*s.cfg.TrafficClass)
			recompute++
		}
		if s.cfg.FlowLabel != nil {
			masked := *s.cfg.FlowLabel & 0xFFFFF
			if ipv6View.FlowLabel() != masked {
				ipv6View.SetFlowLabel(masked)
				recompute++
			}
		}
		if len(s.cfg.PortMap) > 0 && isPortBearing(ipv6View.NextHeader()) {
			if rewritePorts(ipv6View.Payload(), s.cfg.PortMap) {
				recompute++
			}
		}
	}

	// Stage 8: length adjustment.
	if s.cfg.LengthPolicy != lengthadjust.PolicyNone {
		lenChanged, lerr := lengthadjust.Adjust(buf, s.cfg.LengthPolicy, record.WireLength, s.cfg.MTU)
		if lerr != nil {
			err := errorf("tcpedit: length adjustment: %v", lerr)
			s.latchError(err)
			return ResultError, err
		}
		if lenChanged {
			anyChange = true
			// The resize invalidated the L3 views; re-derive them before use.
			var verr error
			switch {
			case v4:
				if ipv4View, verr = ipv4.NewView(buf.Bytes(), newL3Offset); verr == nil {
					ipv4View.SetTotalLength(uint16(buf.Len() - newL3Offset))
					recompute++
				}
			case v6:
				if ipv6View, verr = ipv6.NewView(buf.Bytes(), newL3Offset); verr == nil {
					ipv6View.SetPayloadLength(uint16(buf.Len() - newL3Offset - ipv6.HeaderLength))
					recompute++
				}
			case av:
				arpView, verr = arp.NewView(buf.Bytes(), newL3Offset)
			}
			if verr != nil {
				err := errorf("tcpedit: re-locating L3 header after length adjustment: %v", verr)
				s.latchError(err)
				return ResultError, err
			}
		}
	}

	// Stage 9: address rewrite.
	if s.cfg.AddrMap != nil {
		switch {
		case v4:
			if rewriteIPv4Addr(&ipv4View, direction, s.cfg.AddrMap.RewriteIPv4) {
				recompute++
				anyChange = true
			}
		case v6:
			if rewriteIPv6Addr(&ipv6View, direction, s.cfg.AddrMap.RewriteIPv6) {
				recompute++
				anyChange = true
			}
		case av:
			if newSender, ok := s.cfg.AddrMap.RewriteIPv4(direction, arpView.SenderIP()); ok && newSender != arpView.SenderIP() {
				arpView.SetSenderIP(newSender)
				anyChange = true
			}
			if newTarget, ok := s.cfg.AddrMap.RewriteIPv4(direction, arpView.TargetIP()); ok && newTarget != arpView.TargetIP() {
				arpView.SetTargetIP(newTarget)
				anyChange = true
			}
		}
	}

	// Stage 10: address randomization. Applied after address rewrite so the
	// user's explicit mapping is the substrate the randomizer obfuscates.
	if s.randomizer != nil {
		switch {
		case v4:
			if randomizeIPv4Addr(&ipv4View, s.randomizer.RandomizeIPv4) {
				recompute++
				anyChange = true
			}
		case v6:
			if randomizeIPv6Addr(&ipv6View, s.randomizer.RandomizeIPv6) {
				recompute++
				anyChange = true
			}
		case av:
			if newSender := s.randomizer.RandomizeIPv4(arpView.SenderIP()); newSender != arpView.SenderIP() {
				arpView.SetSenderIP(newSender)
				anyChange = true
			}
			if newTarget := s.randomizer.RandomizeIPv4(arpView.TargetIP()); newTarget != arpView.TargetIP() {
				arpView.SetTargetIP(newTarget)
				anyChange = true
			}
		}
	}

	// Stage 11: checksum fixup (terminal). ARP has no checksum.
	warned := false
	runChecksum := s.cfg.ChecksumPolicy == ChecksumForcedOn || (recompute > 0 && s.cfg.ChecksumPolicy != ChecksumDisabled)
	if runChecksum {
		switch {
		case v4:
			if s.fixupIPv4Checksums(ipv4View) {
				warned = true
			}
		case v6:
			if s.fixupIPv6Checksums(ipv6View) {
				warned = true
			}
		}
	}

	// Stage 12: L3 merge. Every plugin in this registry exposes L3 as a
	// zero-copy aliasing view, so CapMergeL3 is never set and this is a
	// no-op here; it is invoked anyway when a future plugin declares the
	// capability, to honor the merge-back contract.
	if s.encoder.Capabilities().Has(dlt.CapMergeL3) {
		if _, mergeRes, mergeErr := s.encoder.Encode(buf, newL3Offset, decoded.L3Proto); mergeRes != dlt.ResultOK {
			err := errorf("tcpedit: L3 merge: %v", mergeErr)
			s.latchError(err)
			return ResultError, err
		}
	}

	// Stage 13: counter update.
	s.totalBytes += uint64(buf.Len())
	changed := recompute > 0 || anyChange
	if changed {
		s.packetsEdited++
	}

	switch {
	case !changed:
		return ResultUnchanged, nil
	case warned:
		return ResultWarn, nil
	default:
		return ResultChanged, nil
	}
}

// isPortBearing reports whether proto carries a TCP/UDP-shaped port pair in
// its first four bytes. ICMP and ICMPv6 do not, and must never be run
// through rewritePorts -- their Type/Code/Checksum bytes would otherwise be
// silently reinterpreted as ports.
func isPortBearing(proto common.Protocol) bool {
	return proto == common.ProtocolTCP || proto == common.ProtocolUDP
}

// rewritePorts applies portMap to the source/destination ports of a
// TCP/UDP segment (the first four bytes of payload, where both headers
// agree on layout), reporting whether anything changed.
func rewritePorts(payload []byte, portMap interface {
	RewriteSourceAndDest(src, dst uint16) (uint16, uint16, bool)
}) bool {
	if len(payload) < 4 {
		return false
	}
	src := transport.SourcePort(payload)
	dst := transport.DestinationPort(payload)
	newSrc, newDst, changed := portMap.RewriteSourceAndDest(src, dst)
	if !changed {
		return false
	}
	transport.SetSourcePort(payload, newSrc)
	transport.SetDestinationPort(payload, newDst)
	return true
}

func rewriteIPv4Addr(v *ipv4.View, direction common.Direction, rewrite func(common.Direction, common.IPv4Address) (common.IPv4Address, bool)) bool {
	changed := false
	if newSrc, ok := rewrite(direction, v.Source()); ok && newSrc != v.Source() {
		v.SetSource(newSrc)
		changed = true
	}
	if newDst, ok := rewrite(direction, v.Destination()); ok && newDst != v.Destination() {
		v.SetDestination(newDst)
		changed = true
	}
	return changed
}

func rewriteIPv6Addr(v *ipv6.View, direction common.Direction, rewrite func(common.Direction, common.IPv6Address) (common.IPv6Address, bool)) bool {
	changed := false
	if newSrc, ok := rewrite(direction, v.Source()); ok && newSrc != v.Source() {
		v.SetSource(newSrc)
		changed = true
	}
	if newDst, ok := rewrite(direction, v.Destination()); ok && newDst != v.Destination() {
		v.SetDestination(newDst)
		changed = true
	}
	return changed
}

func randomizeIPv4Addr(v *ipv4.View, randomize func(common.IPv4Address) common.IPv4Address) bool {
	changed := false
	if newSrc := randomize(v.Source()); newSrc != v.Source() {
		v.SetSource(newSrc)
		changed = true
	}
	if newDst := randomize(v.Destination()); newDst != v.Destination() {
		v.SetDestination(newDst)
		changed = true
	}
	return changed
}

func randomizeIPv6Addr(v *ipv6.View, randomize func(common.IPv6Address) common.IPv6Address) bool {
	changed := false
	if newSrc := randomize(v.Source()); newSrc != v.Source() {
		v.SetSource(newSrc)
		changed = true
	}
	if newDst := randomize(v.Destination()); newDst != v.Destination() {
		v.SetDestination(newDst)
		changed = true
	}
	return changed
}

// fixupIPv4Checksums recomputes the IPv4 header checksum and, for TCP, UDP
// and ICMP, the transport checksum. It returns whether any fixup was
// computed over a truncated capture, which the caller latches as a
// session-level warning.
func (s *Session) fixupIPv4Checksums(v ipv4.View) bool {
	warned := false
	if res := v.Fixup(); res.Outcome == common.ChecksumWarnTruncated {
		s.latchWarning(fmt.Sprintf("IPv4 header checksum computed over a truncated capture (%s -> %s)", v.Source(), v.Destination()))
		warned = true
	}

	declared := int(v.TotalLength()) - v.HeaderLength()
	if declared < 0 {
		declared = 0
	}
	segment := v.PayloadN(declared)

	var res common.ChecksumResult
	switch v.Protocol() {
	case common.ProtocolTCP:
		if len(segment) < transport.TCPMinHeaderLength {
			return warned
		}
		res = transport.FixupTCPIPv4(segment, v.Source(), v.Destination(), declared)
	case common.ProtocolUDP:
		if len(segment) < transport.UDPHeaderLength {
			return warned
		}
		res = transport.FixupUDPIPv4(segment, v.Source(), v.Destination(), declared)
	case common.ProtocolICMP:
		if len(segment) < transport.ICMPMinHeaderLength {
			return warned
		}
		res = transport.FixupICMPv4(segment, declared)
	default:
		return warned
	}
	if res.Outcome == common.ChecksumWarnTruncated {
		s.latchWarning(fmt.Sprintf("%s checksum computed over a truncated capture (%s -> %s)", v.Protocol(), v.Source(), v.Destination()))
		warned = true
	}
	return warned
}

// fixupIPv6Checksums is the IPv6 equivalent of fixupIPv4Checksums. IPv6
// headers carry no checksum of their own; only the transport layer's does.
func (s *Session) fixupIPv6Checksums(v ipv6.View) bool {
	declared := int(v.PayloadLength())
	segment := v.PayloadN(declared)

	var res common.ChecksumResult
	switch v.NextHeader() {
	case common.ProtocolTCP:
		if len(segment) < transport.TCPMinHeaderLength {
			return false
		}
		res = transport.FixupTCPIPv6(segment, v.Source(), v.Destination(), declared)
	case common.ProtocolUDP:
		if len(segment) < transport.UDPHeaderLength {
			return false
		}
		res = transport.FixupUDPIPv6(segment, v.Source(), v.Destination(), declared)
	case common.ProtocolICMPv6:
		if len(segment) < transport.ICMPMinHeaderLength {
			return false
		}
		res = transport.FixupICMPv6(segment, v.Source(), v.Destination(), declared)
	default:
		return false
	}
	if res.Outcome == common.ChecksumWarnTruncated {
		s.latchWarning(fmt.Sprintf("%s checksum computed over a truncated capture (%s -> %s)", v.NextHeader(), v.Source(), v.Destination()))
		return true
	}
	return false
}
