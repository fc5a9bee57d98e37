package transport

import (
	"bytes"
	"testing"

	"github.com/postalsys/sshcore/pkg/cipher"
	"github.com/postalsys/sshcore/pkg/mac"
)

func key(n int, fill byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return b
}

func TestPacketStreamPlainCipherRoundTrip(t *testing.T) {
	k := key(16, 0x11)
	iv := key(16, 0x22)
	encCipher, err := cipher.NewAESCTR(16, k, iv)
	if err != nil {
		t.Fatalf("NewAESCTR: %v", err)
	}
	decCipher, err := cipher.NewAESCTR(16, k, iv)
	if err != nil {
		t.Fatalf("NewAESCTR: %v", err)
	}

	macKey := key(32, 0x33)
	sendStream := NewPacketStream(DirectionOutgoing, encCipher, mac.NewHMACSHA256(macKey, false), nil)
	recvStream := NewPacketStream(DirectionIncoming, decCipher, mac.NewHMACSHA256(macKey, false), nil)

	payload := []byte{MsgChannelData, 'h', 'e', 'l', 'l', 'o'}
	var buf bytes.Buffer
	if err := sendStream.WritePacket(&buf, payload); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}

	got, err := recvStream.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, payload)
	}
}

func TestPacketStreamAEADRoundTrip(t *testing.T) {
	k := key(32, 0x44)
	encCipher, err := cipher.NewAESGCM(32, k)
	if err != nil {
		t.Fatalf("NewAESGCM: %v", err)
	}
	decCipher, err := cipher.NewAESGCM(32, k)
	if err != nil {
		t.Fatalf("NewAESGCM: %v", err)
	}

	sendStream := NewAEADPacketStream(DirectionOutgoing, encCipher, nil)
	recvStream := NewAEADPacketStream(DirectionIncoming, decCipher, nil)

	payload := []byte{MsgChannelData, 'w', 'o', 'r', 'l', 'd'}
	var buf bytes.Buffer
	if err := sendStream.WritePacket(&buf, payload); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	got, err := recvStream.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, payload)
	}
}

func TestPacketStreamSequenceIncrementsAndRekeyBytesAccumulate(t *testing.T) {
	k := key(32, 0x55)
	c1, _ := cipher.NewAESGCM(32, k)
	c2, _ := cipher.NewAESGCM(32, k)
	send := NewAEADPacketStream(DirectionOutgoing, c1, nil)
	recv := NewAEADPacketStream(DirectionIncoming, c2, nil)

	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		if err := send.WritePacket(&buf, []byte{MsgChannelData}); err != nil {
			t.Fatalf("WritePacket %d: %v", i, err)
		}
	}
	if send.Seq() != 3 {
		t.Fatalf("Seq() = %d, want 3", send.Seq())
	}
	if send.RekeyBytes() == 0 {
		t.Fatal("expected RekeyBytes to accumulate")
	}

	for i := 0; i < 3; i++ {
		if _, err := recv.ReadPacket(&buf); err != nil {
			t.Fatalf("ReadPacket %d: %v", i, err)
		}
	}
	if recv.Seq() != 3 {
		t.Fatalf("recv Seq() = %d, want 3", recv.Seq())
	}
}

func TestSSH1EncodeDecodeRoundTrip(t *testing.T) {
	p := SSH1Packet{Type: 5, Body: []byte("legacy payload")}
	encoded, err := EncodeSSH1(p)
	if err != nil {
		t.Fatalf("EncodeSSH1: %v", err)
	}
	decoded, err := DecodeSSH1(encoded)
	if err != nil {
		t.Fatalf("DecodeSSH1: %v", err)
	}
	if decoded.Type != p.Type || !bytes.Equal(decoded.Body, p.Body) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, p)
	}
}

func TestSSH1DecodeRejectsCorruptedCRC(t *testing.T) {
	p := SSH1Packet{Type: 5, Body: []byte("legacy payload")}
	encoded, err := EncodeSSH1(p)
	if err != nil {
		t.Fatalf("EncodeSSH1: %v", err)
	}
	encoded[len(encoded)-1] ^= 0xFF
	if _, err := DecodeSSH1(encoded); err == nil {
		t.Fatal("expected crc mismatch error")
	}
}

func TestCRCCompensationDetectorFlagsRepeatedBlock(t *testing.T) {
	d := NewCRCCompensationDetector()
	block := bytes.Repeat([]byte{0xAB}, 8)
	packet := append(append([]byte{}, block...), bytes.Repeat([]byte{0xCD}, 8)...)
	if d.CheckPacket(packet) {
		t.Fatal("first packet should not trigger (distinct blocks, no prior IV)")
	}
	repeat := append(append([]byte{}, block...), block...)
	if !d.CheckPacket(repeat) {
		t.Fatal("expected a block repeated from the earlier packet to be flagged")
	}
}

func TestCRCCompensationDetectorFlagsIVCollision(t *testing.T) {
	d := NewCRCCompensationDetector()
	ivBlock := bytes.Repeat([]byte{0x42}, 8)
	d.NoteIV(ivBlock)
	packet := append(append([]byte{}, ivBlock...), bytes.Repeat([]byte{0x99}, 8)...)
	if !d.CheckPacket(packet) {
		t.Fatal("expected collision with last IV block to be flagged")
	}
}
