// Package transport implements SSH packet framing, the key-exchange
// state machine, algorithm negotiation, user authentication method
// ordering, and the connection-layer channel contract that session and
// file-transfer consumers build on.
//
// Grounded on the teacher's internal/peer package's ConnectionState
// enum and Connection type (atomic int32 state, frame reader/writer,
// per-direction sequencing), generalised from a peer-mesh handshake to
// the SSH-2 binary packet protocol.
package transport

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/postalsys/sshcore/pkg/cipher"
	"github.com/postalsys/sshcore/pkg/mac"
)

// Direction distinguishes the two independently-keyed packet streams.
type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
)

// maxPacketLength bounds packet_length per spec 4.5: 256KB.
const maxPacketLength = 256 * 1024

// ErrPacketTooLarge is returned when a decoded packet_length exceeds
// maxPacketLength.
var ErrPacketTooLarge = errors.New("transport: packet length exceeds 256KB limit")

// ErrBadPadding is returned when padding_length is out of the legal
// [4, packet_length-1] range.
var ErrBadPadding = errors.New("transport: padding length out of range")

// ErrMACMismatch is returned when an incoming packet's MAC fails to
// verify.
var ErrMACMismatch = errors.New("transport: mac verification failed")

// Compressor is the minimal compression-context contract packets are
// run through; NoCompression is the default no-op implementation.
type Compressor interface {
	Compress(plain []byte) []byte
	Decompress(compressed []byte) ([]byte, error)
}

// NoCompression is the identity Compressor.
type NoCompression struct{}

func (NoCompression) Compress(plain []byte) []byte                 { return plain }
func (NoCompression) Decompress(compressed []byte) ([]byte, error) { return compressed, nil }

// PacketStream owns one direction's cipher, MAC, compressor, sequence
// counter and pending-rekey byte count, per spec 4.5.
type PacketStream struct {
	dir Direction

	cipher cipher.Packet
	aead   cipher.AEADPacket // non-nil when cipher is an AEAD variant
	ccp    *ccpAdapter       // non-nil for the chacha20-poly1305 construction specifically
	m      mac.MAC

	compressor Compressor
	seq        uint32

	rekeyDataSinceLast uint64
}

// ccpAdapter lets PacketStream address the two-cipher ChaCha20-Poly1305
// construction (which needs explicit length/payload split calls,
// unlike a plain AEAD) through the same read/write paths.
type ccpAdapter struct {
	impl interface {
		EncryptLength(lenField []byte, seq uint32) error
		DecryptLength(lenField []byte, seq uint32) error
		SealPayload(dst, encryptedLenField, plaintext []byte, seq uint32) (ciphertext, tag []byte)
		OpenPayload(dst, encryptedLenField, ciphertext, tag []byte, seq uint32) ([]byte, error)
	}
}

// NewPacketStream builds a packet stream around a plain (non-AEAD)
// cipher plus a separate MAC.
func NewPacketStream(dir Direction, c cipher.Packet, m mac.MAC, compressor Compressor) *PacketStream {
	if compressor == nil {
		compressor = NoCompression{}
	}
	return &PacketStream{dir: dir, cipher: c, m: m, compressor: compressor}
}

// NewAEADPacketStream builds a packet stream around an AEAD cipher
// (AES-GCM); no separate MAC is used.
func NewAEADPacketStream(dir Direction, c cipher.AEADPacket, compressor Compressor) *PacketStream {
	if compressor == nil {
		compressor = NoCompression{}
	}
	return &PacketStream{dir: dir, cipher: c, aead: c, compressor: compressor}
}

// NewChaCha20Poly1305PacketStream builds a packet stream around the
// two-cipher OpenSSH construction.
func NewChaCha20Poly1305PacketStream(dir Direction, impl interface {
	EncryptLength(lenField []byte, seq uint32) error
	DecryptLength(lenField []byte, seq uint32) error
	SealPayload(dst, encryptedLenField, plaintext []byte, seq uint32) (ciphertext, tag []byte)
	OpenPayload(dst, encryptedLenField, ciphertext, tag []byte, seq uint32) ([]byte, error)
}, compressor Compressor) *PacketStream {
	if compressor == nil {
		compressor = NoCompression{}
	}
	return &PacketStream{dir: dir, ccp: &ccpAdapter{impl: impl}, compressor: compressor}
}

// Seq returns the current sequence number (before the next packet is
// sent/received).
func (s *PacketStream) Seq() uint32 { return s.seq }

// RekeyBytes returns the byte count accumulated toward the next
// ssh_rekey_data threshold.
func (s *PacketStream) RekeyBytes() uint64 { return s.rekeyDataSinceLast }

// blockSize returns the padding boundary this stream's cipher requires.
func (s *PacketStream) blockSize() int {
	switch {
	case s.ccp != nil:
		return 8
	case s.aead != nil:
		return 16 // AES block size; GCM still pads payload to the block boundary for framing uniformity
	default:
		bs := s.cipher.BlockSize()
		if bs < 8 {
			bs = 8
		}
		return bs
	}
}

// WritePacket frames, pads, MACs/seals, encrypts and writes payload (a
// single opcode byte followed by its body) to w.
func (s *PacketStream) WritePacket(w io.Writer, payload []byte) error {
	compressed := s.compressor.Compress(payload)

	bs := s.blockSize()
	// 4 (length) + 1 (padding length) + payload, padded to a multiple
	// of bs, with padding_length >= 4.
	unpaddedLen := 1 + len(compressed)
	total := unpaddedLen + 4
	padLen := bs - (total % bs)
	if padLen < 4 {
		padLen += bs
	}
	packetLen := 1 + len(compressed) + padLen

	padding := make([]byte, padLen)
	if _, err := io.ReadFull(rand.Reader, padding); err != nil {
		return err
	}

	body := make([]byte, 1+len(compressed)+padLen)
	body[0] = byte(padLen)
	copy(body[1:], compressed)
	copy(body[1+len(compressed):], padding)

	var lenField [4]byte
	binary.BigEndian.PutUint32(lenField[:], uint32(packetLen))

	switch {
	case s.ccp != nil:
		if err := s.ccp.impl.EncryptLength(lenField[:], s.seq); err != nil {
			return err
		}
		ciphertext, tag := s.ccp.impl.SealPayload(nil, lenField[:], body, s.seq)
		if _, err := w.Write(lenField[:]); err != nil {
			return err
		}
		if _, err := w.Write(ciphertext); err != nil {
			return err
		}
		if _, err := w.Write(tag); err != nil {
			return err
		}
	case s.aead != nil:
		sealed := s.aead.Seal(nil, s.ivForSeq(), body, lenField[:])
		if _, err := w.Write(lenField[:]); err != nil {
			return err
		}
		if _, err := w.Write(sealed); err != nil {
			return err
		}
	default:
		plainFrame := append(append([]byte(nil), lenField[:]...), body...)
		frame := make([]byte, len(plainFrame))
		s.cipher.Encrypt(frame, plainFrame)
		tag := s.m.Compute(append(seqPrefix(s.seq), frame...))
		if _, err := w.Write(frame); err != nil {
			return err
		}
		if _, err := w.Write(tag); err != nil {
			return err
		}
	}

	s.rekeyDataSinceLast += uint64(4 + packetLen)
	s.seq++
	return nil
}

// ReadPacket reads, decrypts, MAC-checks, decompresses and length-
// validates one packet from r, returning its payload (opcode + body,
// padding stripped).
func (s *PacketStream) ReadPacket(r io.Reader) ([]byte, error) {
	var lenField [4]byte
	if _, err := io.ReadFull(r, lenField[:]); err != nil {
		return nil, err
	}

	var body []byte
	switch {
	case s.ccp != nil:
		if err := s.ccp.impl.DecryptLength(lenField[:], s.seq); err != nil {
			return nil, err
		}
		packetLen := binary.BigEndian.Uint32(lenField[:])
		if packetLen > maxPacketLength {
			return nil, ErrPacketTooLarge
		}
		ciphertext := make([]byte, packetLen)
		if _, err := io.ReadFull(r, ciphertext); err != nil {
			return nil, err
		}
		tag := make([]byte, 16)
		if _, err := io.ReadFull(r, tag); err != nil {
			return nil, err
		}
		// re-encrypt lenField back to its wire form for use as the
		// associated data the MAC was actually computed over.
		wireLen := make([]byte, 4)
		binary.BigEndian.PutUint32(wireLen, packetLen)
		if err := s.ccp.impl.EncryptLength(wireLen, s.seq); err != nil {
			return nil, err
		}
		plain, err := s.ccp.impl.OpenPayload(nil, wireLen, ciphertext, tag, s.seq)
		if err != nil {
			return nil, ErrMACMismatch
		}
		body = plain
	case s.aead != nil:
		packetLen := binary.BigEndian.Uint32(lenField[:])
		if packetLen > maxPacketLength {
			return nil, ErrPacketTooLarge
		}
		sealed := make([]byte, int(packetLen)+s.aead.TagSize())
		if _, err := io.ReadFull(r, sealed); err != nil {
			return nil, err
		}
		plain, err := s.aead.Open(nil, s.ivForSeq(), sealed, lenField[:])
		if err != nil {
			return nil, ErrMACMismatch
		}
		body = plain
	default:
		firstBlock := make([]byte, s.blockSize())
		copy(firstBlock, lenField[:])
		if _, err := io.ReadFull(r, firstBlock[4:]); err != nil {
			return nil, err
		}
		decryptedFirst := make([]byte, len(firstBlock))
		s.cipher.Decrypt(decryptedFirst, firstBlock)
		packetLen := binary.BigEndian.Uint32(decryptedFirst[:4])
		if packetLen > maxPacketLength {
			return nil, ErrPacketTooLarge
		}
		rest := make([]byte, int(packetLen)+4-len(firstBlock))
		if _, err := io.ReadFull(r, rest); err != nil {
			return nil, err
		}
		decryptedRest := make([]byte, len(rest))
		s.cipher.Decrypt(decryptedRest, rest)

		full := append(append([]byte(nil), lenField[:]...), firstBlock[4:]...)
		full = append(full, rest...)
		tag := make([]byte, s.m.Size())
		if _, err := io.ReadFull(r, tag); err != nil {
			return nil, err
		}
		if !s.m.Verify(append(seqPrefix(s.seq), full...), tag) {
			return nil, ErrMACMismatch
		}

		body = append(decryptedFirst[4:], decryptedRest...)
	}

	if len(body) < 1 {
		return nil, ErrBadPadding
	}
	padLen := int(body[0])
	if padLen < 4 || padLen > len(body)-1 {
		return nil, ErrBadPadding
	}
	compressed := body[1 : len(body)-padLen]
	plain, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, err
	}

	s.rekeyDataSinceLast += uint64(4 + len(body))
	s.seq++
	return plain, nil
}

// ivForSeq derives the fixed-prefix-plus-counter nonce AES-GCM uses:
// the low 8 bytes hold the sequence number, matching the openssh
// aes-gcm construction's per-packet nonce bookkeeping.
func (s *PacketStream) ivForSeq() []byte {
	nonce := make([]byte, 12)
	binary.BigEndian.PutUint64(nonce[4:], uint64(s.seq))
	return nonce
}

func seqPrefix(seq uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], seq)
	return b[:]
}

// SSH1Packet frames an SSH-1 packet body per spec 4's legacy layout:
// uint32 length, padding to an 8-byte boundary, byte type, body,
// uint32 crc32. Retained only for the keyfile/transport contract
// tests named in spec 4.5's Non-goals.
type SSH1Packet struct {
	Type byte
	Body []byte
}

// EncodeSSH1 renders p with cryptographically random padding.
func EncodeSSH1(p SSH1Packet) ([]byte, error) {
	unpaddedLen := 1 + len(p.Body) + 4 // type + body + crc32
	padLen := 8 - (unpaddedLen % 8)
	if padLen < 4 {
		// SSH-1 requires at least 4 bytes, but unlike SSH-2 will
		// accept exactly 0 extra when already aligned; PuTTY's own
		// ssh1 layer pads to a full 8 regardless when short, so we
		// mirror that for simplicity.
		padLen += 8
	}
	padding := make([]byte, padLen)
	if _, err := io.ReadFull(rand.Reader, padding); err != nil {
		return nil, err
	}

	body := append(append([]byte{p.Type}, p.Body...))
	crc := crc32SSH1(append(padding, body...))

	out := make([]byte, 0, 4+padLen+len(body)+4)
	var lenField [4]byte
	binary.BigEndian.PutUint32(lenField[:], uint32(len(body)+4))
	out = append(out, lenField[:]...)
	out = append(out, padding...)
	out = append(out, body...)
	var crcField [4]byte
	binary.BigEndian.PutUint32(crcField[:], crc)
	out = append(out, crcField[:]...)
	return out, nil
}

// DecodeSSH1 parses the inverse of EncodeSSH1, verifying the crc32.
func DecodeSSH1(data []byte) (SSH1Packet, error) {
	if len(data) < 4 {
		return SSH1Packet{}, fmt.Errorf("transport: ssh-1 packet too short")
	}
	length := binary.BigEndian.Uint32(data[:4])
	rest := data[4:]
	// EncodeSSH1 pads by 8 - (length % 8) bytes, adding a further 8
	// when that is under 4, so padding is always 4..11 bytes.
	padLen := 8 - int(length%8)
	if padLen < 4 {
		padLen += 8
	}
	if uint32(len(rest)) < uint32(padLen)+length {
		return SSH1Packet{}, fmt.Errorf("transport: ssh-1 packet truncated")
	}
	padding := rest[:padLen]
	body := rest[padLen : uint32(padLen)+length]
	if len(body) < 5 {
		return SSH1Packet{}, fmt.Errorf("transport: ssh-1 packet body too short")
	}
	msgAndType := body[:len(body)-4]
	wantCRC := binary.BigEndian.Uint32(body[len(body)-4:])
	gotCRC := crc32SSH1(append(append([]byte(nil), padding...), msgAndType...))
	if gotCRC != wantCRC {
		return SSH1Packet{}, fmt.Errorf("transport: ssh-1 packet crc mismatch")
	}
	return SSH1Packet{Type: msgAndType[0], Body: msgAndType[1:]}, nil
}
