package capture

import (
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/netrecast/tcpedit/pkg/dlt"
)

// Reader reads Records from a classic pcap file via gopacket/pcapgo. The
// link type recorded in the file header tells the caller which DLT plugin
// to install as the session's decoder.
type Reader struct {
	r        *pcapgo.Reader
	headroom int
}

// NewReader wraps r as a pcap source. headroom, when non-positive,
// defaults to DefaultHeadroom.
func NewReader(r io.Reader, headroom int) (*Reader, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("capture: opening pcap reader: %w", err)
	}
	if headroom <= 0 {
		headroom = DefaultHeadroom
	}
	return &Reader{r: pr, headroom: headroom}, nil
}

// LinkType reports the file's declared link-layer type. Libpcap DLT_*
// numbering and gopacket's layers.LinkType share the same numeric space,
// so the conversion is a plain cast.
func (r *Reader) LinkType() dlt.LinkType {
	return dlt.LinkType(r.r.LinkType())
}

// Next reads the next record, or io.EOF when the file is exhausted. The
// returned Record's Data has the Reader's headroom (as given to NewReader)
// in spare capacity past CapLen for the editor's DLT encoder to grow into.
func (r *Reader) Next() (*Record, error) {
	data, ci, err := r.r.ReadPacketData()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(data), len(data)+r.headroom)
	copy(buf, data)
	return &Record{
		Timestamp: ci.Timestamp,
		CapLen:    ci.CaptureLength,
		WireLen:   ci.Length,
		Data:      buf,
	}, nil
}

// Writer writes Records to a classic pcap file via gopacket/pcapgo.
type Writer struct {
	w *pcapgo.Writer
}

// NewWriter writes a pcap file header declaring linkType and snapLen, then
// returns a Writer ready to accept records.
func NewWriter(w io.Writer, linkType dlt.LinkType, snapLen int) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(uint32(snapLen), layers.LinkType(linkType)); err != nil {
		return nil, fmt.Errorf("capture: writing pcap file header: %w", err)
	}
	return &Writer{w: pw}, nil
}

// Write appends rec to the file. Only Data[:CapLen] is written; any
// reserved headroom past CapLen is never persisted.
func (w *Writer) Write(rec *Record) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     rec.Timestamp,
		CaptureLength: rec.CapLen,
		Length:        rec.WireLen,
	}
	return w.w.WritePacket(ci, rec.Data[:rec.CapLen])
}
