package arp

import (
	"testing"

	"github.com/netrecast/tcpedit/pkg/common"
)

func buildARP(t *testing.T) []byte {
	t.Helper()
	buf := make([]byte, PacketLength)
	buf[0], buf[1] = 0x00, 0x01 // hardware type
	buf[2], buf[3] = 0x08, 0x00 // protocol type
	buf[4] = 6
	buf[5] = 4
	buf[6], buf[7] = 0x00, 0x01 // request
	senderMAC := common.MACAddress{0, 1, 2, 3, 4, 5}
	senderIP := common.IPv4Address{192, 168, 1, 1}
	targetMAC := common.MACAddress{}
	targetIP := common.IPv4Address{192, 168, 1, 2}
	copy(buf[8:14], senderMAC[:])
	copy(buf[14:18], senderIP[:])
	copy(buf[18:24], targetMAC[:])
	copy(buf[24:28], targetIP[:])
	return buf
}

func TestNewViewRejectsShortBuffer(t *testing.T) {
	if _, err := NewView(make([]byte, 10), 0); err == nil {
		t.Error("NewView() on a 10-byte buffer should fail")
	}
}

func TestNewViewRejectsBadHardwareType(t *testing.T) {
	buf := buildARP(t)
	buf[1] = 0x06
	if _, err := NewView(buf, 0); err == nil {
		t.Error("NewView() with unsupported hardware type should fail")
	}
}

func TestViewFieldAccess(t *testing.T) {
	buf := buildARP(t)
	v, err := NewView(buf, 0)
	if err != nil {
		t.Fatalf("NewView() error = %v", err)
	}

	if !v.IsRequest() {
		t.Error("IsRequest() = false, want true")
	}
	if v.IsReply() {
		t.Error("IsReply() = true, want false")
	}

	newTarget := common.MACAddress{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	v.SetTargetMAC(newTarget)
	if v.TargetMAC() != newTarget {
		t.Errorf("TargetMAC() = %v, want %v", v.TargetMAC(), newTarget)
	}

	newIP := common.IPv4Address{10, 0, 0, 1}
	v.SetSenderIP(newIP)
	if v.SenderIP() != newIP {
		t.Errorf("SenderIP() = %v, want %v", v.SenderIP(), newIP)
	}
}
