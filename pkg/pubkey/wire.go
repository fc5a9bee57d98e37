package pubkey

import (
	"encoding/binary"
	"math/big"
)

// sshWriter builds the length-prefixed-string/mpint wire encoding shared
// by every SSH public-key and signature blob.
type sshWriter struct {
	buf []byte
}

func newSSHWriter() *sshWriter { return &sshWriter{} }

func (w *sshWriter) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *sshWriter) writeBytes(b []byte) {
	w.writeUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *sshWriter) writeString(s string) {
	w.writeBytes([]byte(s))
}

// writeMPInt encodes x the SSH way: a minimal two's-complement big-endian
// encoding, with a leading 0x00 byte inserted if the high bit of the
// first byte would otherwise be set (so positive values never look
// negative).
func (w *sshWriter) writeMPInt(x *big.Int) {
	if x == nil || x.Sign() == 0 {
		w.writeUint32(0)
		return
	}
	b := x.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	w.writeBytes(b)
}

func (w *sshWriter) bytes() []byte { return w.buf }

// sshReader parses the same encoding back out.
type sshReader struct {
	buf []byte
}

func newSSHReader(b []byte) *sshReader { return &sshReader{buf: b} }

func (r *sshReader) readBytes() ([]byte, bool) {
	if len(r.buf) < 4 {
		return nil, false
	}
	n := binary.BigEndian.Uint32(r.buf[:4])
	r.buf = r.buf[4:]
	if uint64(len(r.buf)) < uint64(n) {
		return nil, false
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out, true
}

func (r *sshReader) readString() (string, bool) {
	b, ok := r.readBytes()
	return string(b), ok
}

func (r *sshReader) readMPInt() (*big.Int, bool) {
	b, ok := r.readBytes()
	if !ok {
		return nil, false
	}
	return new(big.Int).SetBytes(b), true
}

// packSSHSignature wraps a raw signature blob with its SSH algorithm
// name, the encoding every Key.Sign result uses on the wire.
func packSSHSignature(algName string, sig []byte) []byte {
	w := newSSHWriter()
	w.writeString(algName)
	w.writeBytes(sig)
	return w.bytes()
}

// unpackSSHSignature reverses packSSHSignature.
func unpackSSHSignature(blob []byte) (algName string, sig []byte, ok bool) {
	r := newSSHReader(blob)
	algName, ok = r.readString()
	if !ok {
		return "", nil, false
	}
	sig, ok = r.readBytes()
	return algName, sig, ok
}
