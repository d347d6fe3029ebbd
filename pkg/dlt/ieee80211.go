package dlt

import (
	"encoding/binary"
	"fmt"

	"github.com/netrecast/tcpedit/pkg/common"
)

// IEEE 802.11 frame control type values.
const (
	dot11TypeManagement = 0
	dot11TypeControl    = 1
	dot11TypeData       = 2
)

// dot11BaseHeaderLength is the fixed part of a data frame header: 2-byte
// frame control, 2-byte duration, three 6-byte addresses, 2-byte sequence
// control (24 bytes total, before any address-4 or QoS extension).
const dot11BaseHeaderLength = 24

// dot11SNAPHeaderLength is the RFC 1042 LLC/SNAP encapsulation this plugin
// assumes sits between the 802.11 header and the IP payload: DSAP, SSAP,
// Control, a 3-byte zero OUI, and a 2-byte ethertype.
const dot11SNAPHeaderLength = 8

// IEEE80211Plugin decodes plain (non-QoS) 802.11 data frames carrying an
// RFC 1042 SNAP encapsulation. It cannot deterministically rewrite
// management frames (no L3 payload to locate) or QoS data frames (variable
// extra header this editor doesn't track), and returns ResultSoftError for
// both -- the pipeline drops such packets rather than aborting the run.
// It does not support encoding 802.11 output: synthesizing a radio header
// from another link type's metadata isn't well-defined, so Capabilities
// omits CapEncode.
type IEEE80211Plugin struct{}

// NewIEEE80211Plugin returns the 802.11 plugin.
func NewIEEE80211Plugin() *IEEE80211Plugin { return &IEEE80211Plugin{} }

// LinkType implements Plugin.
func (p *IEEE80211Plugin) LinkType() LinkType { return LinkTypeIEEE80211 }

// Capabilities implements Plugin.
func (p *IEEE80211Plugin) Capabilities() Capability {
	return CapDecode | CapL2Length | CapL3Data
}

// Decode implements Plugin.
func (p *IEEE80211Plugin) Decode(buf *common.PacketBuffer) (DecodedL2, Result, error) {
	headerLen, frameType, subtype, result, err := p.classify(buf)
	if result != ResultOK {
		return DecodedL2{}, result, err
	}
	_ = frameType
	_ = subtype

	data := buf.Bytes()
	snapOff := headerLen
	if snapOff+dot11SNAPHeaderLength > len(data) {
		return DecodedL2{}, ResultError, fmt.Errorf("dlt/ieee80211: frame too short for SNAP header")
	}
	ethType := common.EtherType(binary.BigEndian.Uint16(data[snapOff+6 : snapOff+8]))
	return DecodedL2{L3Offset: snapOff + dot11SNAPHeaderLength, L3Proto: ethType}, ResultOK, nil
}

// L2Length implements Plugin.
func (p *IEEE80211Plugin) L2Length(buf *common.PacketBuffer) (int, error) {
	headerLen, _, _, result, err := p.classify(buf)
	if result != ResultOK {
		if err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("dlt/ieee80211: frame cannot be sized")
	}
	return headerLen + dot11SNAPHeaderLength, nil
}

// classify inspects the frame control field and reports the 802.11 header
// length (before any SNAP header), deferring a SoftError for frame classes
// this plugin cannot locate L3 within.
func (p *IEEE80211Plugin) classify(buf *common.PacketBuffer) (headerLen int, frameType, subtype uint8, result Result, err error) {
	data := buf.Bytes()
	if len(data) < 2 {
		return 0, 0, 0, ResultError, fmt.Errorf("dlt/ieee80211: frame too short for frame control")
	}
	frameType = (data[0] >> 2) & 0x3
	subtype = (data[0] >> 4) & 0xF

	switch frameType {
	case dot11TypeManagement, dot11TypeControl:
		return 0, frameType, subtype, ResultSoftError, fmt.Errorf("dlt/ieee80211: frame type %d has no network-layer payload to rewrite", frameType)
	case dot11TypeData:
		if subtype&0x8 != 0 {
			return 0, frameType, subtype, ResultSoftError, fmt.Errorf("dlt/ieee80211: QoS data frames are not supported")
		}
	default:
		return 0, frameType, subtype, ResultError, fmt.Errorf("dlt/ieee80211: invalid frame type %d", frameType)
	}

	if len(data) < dot11BaseHeaderLength+2 {
		return 0, frameType, subtype, ResultError, fmt.Errorf("dlt/ieee80211: frame too short for header")
	}
	headerLen = dot11BaseHeaderLength
	toDS := data[1]&0x1 != 0
	fromDS := data[1]&0x2 != 0
	if toDS && fromDS {
		headerLen += 6 // address 4 present
	}
	return headerLen, frameType, subtype, ResultOK, nil
}

// Encode implements Plugin. Synthesizing an 802.11 radio header from
// another link type's metadata is not supported by this editor.
func (p *IEEE80211Plugin) Encode(buf *common.PacketBuffer, oldL3Offset int, l3Proto common.EtherType) (int, Result, error) {
	return 0, ResultSoftError, fmt.Errorf("dlt/ieee80211: encoding 802.11 output is not supported")
}
