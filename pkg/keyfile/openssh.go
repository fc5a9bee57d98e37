package keyfile

import (
	"bytes"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// OpenSSHKey is the generic container-level decoding of an OpenSSH
// private key: the algorithm name and the public/private wire blobs
// exactly as a pkg/pubkey.Key's PublicBlob/OpenSSHBlob would produce
// and consume, without this package needing to know how to
// reconstruct every concrete algorithm itself.
type OpenSSHKey struct {
	Algorithm string
	Public    []byte
	Private   []byte
	Comment   string
}

var (
	// ErrUnsupportedContainer is returned for recognized-but-unhandled
	// key file formats (ssh.com, and encrypted openssh-key-v1
	// containers, whose bcrypt-pbkdf KDF has no implementation in this
	// package -- see DESIGN.md).
	ErrUnsupportedContainer = errors.New("keyfile: unsupported or unimplemented key container")
	errMalformedOpenSSH     = errors.New("keyfile: malformed openssh-key-v1 container")
)

const (
	opensshMagic       = "openssh-key-v1\x00"
	pemOpenSSHNewBlock = "OPENSSH PRIVATE KEY"
)

// LooksLikePEM reports whether data appears to be a PEM-encoded key of
// any kind (OpenSSH new-format container, or a traditional/PKCS#8 PEM
// block).
func LooksLikePEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// LooksLikeSSHCom reports whether data is an ssh.com/Tectia private key
// file, recognized by its distinctive header line. Full ssh.com
// decoding is out of scope; callers should surface ErrUnsupportedContainer.
func LooksLikeSSHCom(data []byte) bool {
	return bytes.Contains(data[:minInt(len(data), 64)], []byte("---- BEGIN SSH2 ENCRYPTED PRIVATE KEY"))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// LoadOpenSSHNewFormat parses the openssh-key-v1 PEM container OpenSSH's
// own ssh-keygen produces since 2014. Only the "none" cipher/KDF
// (unencrypted keys) is supported: the "bcrypt" KDF openssh-key-v1 uses
// for encrypted keys has no public Go implementation among this
// module's dependencies, so encrypted containers are rejected with
// ErrUnsupportedContainer rather than re-implementing bcrypt_pbkdf by
// hand.
func LoadOpenSSHNewFormat(data []byte) (*OpenSSHKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemOpenSSHNewBlock {
		return nil, fmt.Errorf("%w: not an OPENSSH PRIVATE KEY PEM block", errMalformedOpenSSH)
	}

	r := &byteReader{data: block.Bytes}
	magic, err := r.readFixed(len(opensshMagic))
	if err != nil || string(magic) != opensshMagic {
		return nil, fmt.Errorf("%w: bad magic", errMalformedOpenSSH)
	}

	cipherName, err := r.readString()
	if err != nil {
		return nil, err
	}
	kdfName, err := r.readString()
	if err != nil {
		return nil, err
	}
	if _, err := r.readBytes(); err != nil { // kdf options
		return nil, err
	}
	numKeys, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	if numKeys != 1 {
		return nil, fmt.Errorf("%w: only single-key containers are supported", errMalformedOpenSSH)
	}

	publicBlob, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	privateSection, err := r.readBytes()
	if err != nil {
		return nil, err
	}

	if cipherName != "none" || kdfName != "none" {
		return nil, ErrUnsupportedContainer
	}

	pr := &byteReader{data: privateSection}
	check1, err := pr.readUint32()
	if err != nil {
		return nil, err
	}
	check2, err := pr.readUint32()
	if err != nil {
		return nil, err
	}
	if check1 != check2 {
		return nil, fmt.Errorf("%w: checkint mismatch", errMalformedOpenSSH)
	}

	algorithm, err := pr.readString()
	if err != nil {
		return nil, err
	}

	// The per-algorithm public components repeat here ahead of the
	// private ones; pkg/pubkey's OpenSSHBlob encoding already carries
	// the public material, so the combined remainder of the private
	// section (components + comment + padding) is kept as one opaque
	// blob and re-split at Comment/padding time.
	rest := pr.data[pr.pos:]
	comment, commentStart, err := extractOpenSSHComment(rest)
	if err != nil {
		return nil, err
	}
	privateComponents := rest[:commentStart]

	return &OpenSSHKey{
		Algorithm: algorithm,
		Public:    publicBlob,
		Private:   privateComponents,
		Comment:   comment,
	}, nil
}

// extractOpenSSHComment walks the padding-then-comment trailer OpenSSH
// appends after the algorithm-specific private fields: a single
// length-prefixed comment string, followed by 0..blockSize-1 bytes of
// 0x01 0x02 0x03 ... padding. Since the private fields themselves are
// opaque here, the padding is located first (the longest trailing run
// matching 1,2,3,...,k), then the comment's length prefix is found by
// scanning forward for the one offset that lands exactly on the start
// of that padding.
func extractOpenSSHComment(rest []byte) (comment string, commentStart int, err error) {
	maxPad := 7
	if maxPad > len(rest) {
		maxPad = len(rest)
	}
	padLen := 0
	for k := maxPad; k >= 1; k-- {
		match := true
		for i := 0; i < k; i++ {
			if rest[len(rest)-k+i] != byte(i+1) {
				match = false
				break
			}
		}
		if match {
			padLen = k
			break
		}
	}
	end := len(rest) - padLen

	if end < 4 {
		return "", 0, fmt.Errorf("%w: no room for comment", errMalformedOpenSSH)
	}
	// Prefer the shortest possible comment (the start closest to end),
	// so an accidental match inside the opaque private fields earlier
	// in the buffer doesn't swallow them.
	for start := end - 4; start >= 0; start-- {
		n := binary.BigEndian.Uint32(rest[start : start+4])
		if start+4+int(n) == end {
			return string(rest[start+4 : end]), start, nil
		}
	}
	return "", 0, fmt.Errorf("%w: comment field not found", errMalformedOpenSSH)
}

// SaveOpenSSHNewFormat renders k as an unencrypted openssh-key-v1 PEM
// container. privateComponents must already be encoded the way
// pkg/pubkey's Key.OpenSSHBlob documents (algorithm name followed by
// public then private components in OpenSSH's field order); this
// function wraps that in the container framing, checkint pair, comment
// and padding.
func SaveOpenSSHNewFormat(k *OpenSSHKey) ([]byte, error) {
	var priv byteWriter
	var checkint [4]byte
	if _, err := rand.Read(checkint[:]); err != nil {
		return nil, err
	}
	priv.writeUint32(binary.BigEndian.Uint32(checkint[:]))
	priv.writeUint32(binary.BigEndian.Uint32(checkint[:]))
	priv.writeString(k.Algorithm)
	priv.writeRaw(k.Private)
	priv.writeString(k.Comment)

	blockSize := 8
	padLen := (blockSize - (len(priv.buf) % blockSize)) % blockSize
	for i := 1; i <= padLen; i++ {
		priv.buf = append(priv.buf, byte(i))
	}

	var out byteWriter
	out.writeRaw([]byte(opensshMagic))
	out.writeString("none")
	out.writeString("none")
	out.writeBytes(nil)
	out.writeUint32(1)
	out.writeBytes(k.Public)
	out.writeBytes(priv.buf)

	block := &pem.Block{Type: pemOpenSSHNewBlock, Bytes: out.buf}
	return pem.EncodeToMemory(block), nil
}

// LoadPEMPrivateKey parses a traditional or PKCS#8 PEM private key
// (RSA/EC/Ed25519) via crypto/x509 into stdlib key types, for the
// common case of importing keys produced by tools other than
// ssh-keygen's openssh-key-v1 writer.
func LoadPEMPrivateKey(data []byte) (any, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", errMalformedOpenSSH)
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		return x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unrecognized PEM block type %q", ErrUnsupportedContainer, block.Type)
	}
}

// SavePEMPrivateKey encodes key (an *rsa.PrivateKey, *ecdsa.PrivateKey
// or ed25519.PrivateKey) as a PKCS#8 PEM block, the portable format
// most non-OpenSSH tooling expects.
func SavePEMPrivateKey(key any) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// byteWriter and byteReader are the same length-prefixed wire encoding
// pkg/pubkey's sshWriter/sshReader use, reimplemented locally since
// that type is unexported across the package boundary.
type byteWriter struct{ buf []byte }

func (w *byteWriter) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) writeBytes(b []byte) {
	w.writeUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *byteWriter) writeString(s string) { w.writeBytes([]byte(s)) }
func (w *byteWriter) writeRaw(b []byte)    { w.buf = append(w.buf, b...) }

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) readFixed(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, errMalformedOpenSSH
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) readUint32() (uint32, error) {
	b, err := r.readFixed(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *byteReader) readBytes() ([]byte, error) {
	n, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	return r.readFixed(int(n))
}

func (r *byteReader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// stripBase64Whitespace is a small helper for callers that have pulled
// a naked base64 body (e.g. out of an ssh.com file) without the
// encoding/pem line-wrapping.
func stripBase64Whitespace(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	if _, err := base64.StdEncoding.DecodeString(b.String()); err != nil {
		return "", err
	}
	return b.String(), nil
}
