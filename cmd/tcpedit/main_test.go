package main

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/netrecast/tcpedit/internal/capture"
	"github.com/netrecast/tcpedit/pkg/common"
	"github.com/netrecast/tcpedit/pkg/dlt"
	"github.com/netrecast/tcpedit/pkg/ipv4"
	"github.com/netrecast/tcpedit/pkg/transport"
)

// buildEthIPv4TCP mirrors pkg/tcpedit's test helper: a minimal, checksum-valid
// Ethernet+IPv4+TCP frame.
func buildEthIPv4TCP(t *testing.T, ttl uint8, srcIP, dstIP common.IPv4Address, srcPort, dstPort uint16) []byte {
	t.Helper()
	totalLen := ipv4.MinHeaderLength + transport.TCPMinHeaderLength
	frame := make([]byte, 14+totalLen)

	binary.BigEndian.PutUint16(frame[12:14], uint16(common.EtherTypeIPv4))

	ipHdr := frame[14 : 14+ipv4.MinHeaderLength]
	ipHdr[0] = 0x45
	binary.BigEndian.PutUint16(ipHdr[2:4], uint16(totalLen))
	ipHdr[8] = ttl
	ipHdr[9] = uint8(common.ProtocolTCP)
	copy(ipHdr[12:16], srcIP[:])
	copy(ipHdr[16:20], dstIP[:])

	tcpSeg := frame[14+ipv4.MinHeaderLength:]
	binary.BigEndian.PutUint16(tcpSeg[0:2], srcPort)
	binary.BigEndian.PutUint16(tcpSeg[2:4], dstPort)
	tcpSeg[12] = 0x50
	transport.FixupTCPIPv4(tcpSeg, srcIP, dstIP, len(tcpSeg))

	v, err := ipv4.NewView(frame, 14)
	if err != nil {
		t.Fatalf("buildEthIPv4TCP: %v", err)
	}
	v.Fixup()
	return frame
}

func TestRunEditRewritesTTLAndPreservesPcapStructure(t *testing.T) {
	srcIP := common.IPv4Address{10, 0, 0, 5}
	dstIP := common.IPv4Address{10, 0, 0, 6}
	frame := buildEthIPv4TCP(t, 64, srcIP, dstIP, 1234, 80)

	dir := t.TempDir()
	inFile := filepath.Join(dir, "in.pcap")
	outFile := filepath.Join(dir, "out.pcap")

	f, err := os.Create(inFile)
	if err != nil {
		t.Fatalf("creating input fixture: %v", err)
	}
	w, err := capture.NewWriter(f, dlt.LinkTypeEthernet, 65535)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.Write(&capture.Record{CapLen: len(frame), WireLen: len(frame), Data: frame}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f.Close()

	inPath = inFile
	outPath = outFile
	editOpts = []string{"ttl=set:32"}
	direction = "client"
	verbose = false

	if err := runEdit(nil, nil); err != nil {
		t.Fatalf("runEdit() error = %v", err)
	}

	out, err := os.Open(outFile)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer out.Close()

	r, err := capture.NewReader(out, 0)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if got := r.LinkType(); got != dlt.LinkTypeEthernet {
		t.Errorf("LinkType() = %v, want Ethernet", got)
	}

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	v, err := ipv4.NewView(rec.Data[:rec.CapLen], 14)
	if err != nil {
		t.Fatalf("ipv4.NewView() error = %v", err)
	}
	if v.TTL() != 32 {
		t.Errorf("TTL = %d, want 32", v.TTL())
	}
	if !common.VerifyChecksum(rec.Data[14 : 14+v.HeaderLength()]) {
		t.Error("IPv4 header checksum does not verify after edit")
	}
}

// build80211DataIPv4TCP builds a non-QoS 802.11 data frame carrying an RFC
// 1042 SNAP-encapsulated, checksum-valid IPv4+TCP packet.
func build80211DataIPv4TCP(t *testing.T, srcIP, dstIP common.IPv4Address, srcPort, dstPort uint16) []byte {
	t.Helper()
	const dot11Len, snapLen = 24, 8
	totalLen := ipv4.MinHeaderLength + transport.TCPMinHeaderLength
	frame := make([]byte, dot11Len+snapLen+totalLen)

	frame[0] = 0x08 // frame control: type=2 (data), subtype=0 (non-QoS)

	snap := frame[dot11Len : dot11Len+snapLen]
	snap[0], snap[1], snap[2] = 0xAA, 0xAA, 0x03
	binary.BigEndian.PutUint16(snap[6:8], uint16(common.EtherTypeIPv4))

	ipOff := dot11Len + snapLen
	ipHdr := frame[ipOff : ipOff+ipv4.MinHeaderLength]
	ipHdr[0] = 0x45
	binary.BigEndian.PutUint16(ipHdr[2:4], uint16(totalLen))
	ipHdr[8] = 64
	ipHdr[9] = uint8(common.ProtocolTCP)
	copy(ipHdr[12:16], srcIP[:])
	copy(ipHdr[16:20], dstIP[:])

	tcpSeg := frame[ipOff+ipv4.MinHeaderLength:]
	binary.BigEndian.PutUint16(tcpSeg[0:2], srcPort)
	binary.BigEndian.PutUint16(tcpSeg[2:4], dstPort)
	tcpSeg[12] = 0x50
	transport.FixupTCPIPv4(tcpSeg, srcIP, dstIP, len(tcpSeg))

	v, err := ipv4.NewView(frame, ipOff)
	if err != nil {
		t.Fatalf("build80211DataIPv4TCP: %v", err)
	}
	v.Fixup()
	return frame
}

func build80211Management() []byte {
	return make([]byte, 24) // frame control byte 0x00: type=0 (management)
}

// TestRunEditContinuesPastSoftError exercises spec scenario 4 end to end:
// a soft-error packet must be dropped, not abort the run, and packets after
// it must still be edited and written.
func TestRunEditContinuesPastSoftError(t *testing.T) {
	srcIP := common.IPv4Address{10, 0, 0, 5}
	dstIP := common.IPv4Address{10, 0, 0, 6}
	mgmt := build80211Management()
	data := build80211DataIPv4TCP(t, srcIP, dstIP, 1234, 80)

	dir := t.TempDir()
	inFile := filepath.Join(dir, "in.pcap")
	outFile := filepath.Join(dir, "out.pcap")

	f, err := os.Create(inFile)
	if err != nil {
		t.Fatalf("creating input fixture: %v", err)
	}
	w, err := capture.NewWriter(f, dlt.LinkTypeIEEE80211, 65535)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	for _, rec := range [][]byte{mgmt, data} {
		if err := w.Write(&capture.Record{CapLen: len(rec), WireLen: len(rec), Data: rec}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	f.Close()

	inPath = inFile
	outPath = outFile
	editOpts = []string{"dlt_out=1", "ttl=set:32"} // dlt_out=1 -> Ethernet: 802.11 has no encoder
	direction = "client"
	verbose = false

	if err := runEdit(nil, nil); err != nil {
		t.Fatalf("runEdit() error = %v, want the soft-error packet dropped and the run to continue", err)
	}

	out, err := os.Open(outFile)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer out.Close()

	r, err := capture.NewReader(out, 0)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v, want exactly one surviving packet", err)
	}
	v, err := ipv4.NewView(rec.Data[:rec.CapLen], 14)
	if err != nil {
		t.Fatalf("ipv4.NewView() error = %v", err)
	}
	if v.TTL() != 32 {
		t.Errorf("TTL = %d, want 32", v.TTL())
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("second Next() error = %v, want io.EOF (the management frame must have been dropped, not written)", err)
	}
}

func TestParseDirection(t *testing.T) {
	if got, err := parseDirection("client"); err != nil || got != common.DirClientToServer {
		t.Errorf("parseDirection(client) = (%v, %v), want (DirClientToServer, nil)", got, err)
	}
	if got, err := parseDirection("server"); err != nil || got != common.DirServerToClient {
		t.Errorf("parseDirection(server) = (%v, %v), want (DirServerToClient, nil)", got, err)
	}
	if _, err := parseDirection("bogus"); err == nil {
		t.Error("parseDirection(bogus) error = nil, want an error")
	}
}
