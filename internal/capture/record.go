// Package capture implements the capture-file boundary as an external
// collaborator: record production and consumption over pcap files, via
// gopacket/pcapgo.
package capture

import "time"

// DefaultHeadroom is the extra capacity reserved past CapLen in every
// Record's Data, covering the largest link-layer header growth a shipped
// DLT plugin can introduce (raw IP -> Linux cooked capture, +16 bytes).
const DefaultHeadroom = 16

// Record is one captured packet: its original capture metadata plus a
// buffer with headroom for the editor's DLT encoder to grow into. Data's
// logical content is Data[:CapLen]; bytes beyond that up to cap(Data) are
// the reserved headroom.
type Record struct {
	Timestamp time.Time
	CapLen    int
	WireLen   int
	Data      []byte
}
