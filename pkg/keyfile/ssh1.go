package keyfile

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/postalsys/sshcore/pkg/cipher"
)

// ssh1Magic is the fixed header line legacy SSH-1 RSA key files start
// with.
const ssh1Magic = "SSH PRIVATE KEY FILE FORMAT 1.1"

// SSH1CipherNone and SSH1Cipher3DES are the two cipher ids the legacy
// format's header byte may carry.
const (
	SSH1CipherNone = 0
	SSH1Cipher3DES = 3
)

// SSH1RSAKey is the decoded form of a legacy ~/.ssh/identity file.
type SSH1RSAKey struct {
	Comment string
	N, E    *big.Int // public
	D, P, Q *big.Int // private; nil until Decrypt succeeds
	IQMP    *big.Int

	cipherID  byte
	encrypted []byte // the still-encrypted private block, present until Decrypt is called
}

var errBadSSH1Format = errors.New("keyfile: not a valid SSH-1 private key file")

// LoadSSH1RSA parses a legacy SSH-1 RSA private key file's header and
// public portion; the private portion remains encrypted until Decrypt
// is called (or is already plaintext if the file declares
// SSH1CipherNone).
func LoadSSH1RSA(data []byte) (*SSH1RSAKey, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() || scanner.Text() != ssh1Magic {
		return nil, errBadSSH1Format
	}

	r := &ssh1Reader{data: data, pos: len(ssh1Magic) + 1}
	cipherID, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if _, err := r.readUint32(); err != nil { // reserved
		return nil, err
	}
	bits, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	_ = bits // informational only; N's actual bit length is authoritative

	n, err := r.readSSH1MPInt()
	if err != nil {
		return nil, err
	}
	e, err := r.readSSH1MPInt()
	if err != nil {
		return nil, err
	}
	comment, err := r.readSSH1String()
	if err != nil {
		return nil, err
	}

	encrypted := data[r.pos:]

	return &SSH1RSAKey{
		Comment:   comment,
		N:         n,
		E:         e,
		cipherID:  cipherID,
		encrypted: encrypted,
	}, nil
}

// Decrypt derives the 3des-ssh1 key from passphrase and decrypts the
// private block, validating the format's own weak integrity check:
// the block stores a pair of matching random 16-bit words immediately
// before the private mpints, and decryption is judged successful only
// if they match. oldKeyfileWarning is true whenever Decrypt succeeds at
// all, since this legacy format's integrity check is too weak to rely
// on and callers should surface that to the user.
func (k *SSH1RSAKey) Decrypt(passphrase string) (oldKeyfileWarning bool, err error) {
	plain := k.encrypted
	if k.cipherID == SSH1Cipher3DES {
		c, err := cipher.NewTripleDESSSH1(ssh1DeriveKey(passphrase))
		if err != nil {
			return false, err
		}
		if len(k.encrypted)%c.BlockSize() != 0 {
			return false, fmt.Errorf("%w: encrypted block not a multiple of the cipher block size", errBadSSH1Format)
		}
		plain = make([]byte, len(k.encrypted))
		c.Decrypt(plain, k.encrypted)
	}

	r := &ssh1Reader{data: plain}
	word1, err := r.readUint16()
	if err != nil {
		return false, err
	}
	word2, err := r.readUint16()
	if err != nil {
		return false, err
	}
	if word1 != word2 {
		return false, ErrWrongPassphrase
	}

	d, err := r.readSSH1MPInt()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errBadSSH1Format, err)
	}
	iqmp, err := r.readSSH1MPInt()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errBadSSH1Format, err)
	}
	p, err := r.readSSH1MPInt()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errBadSSH1Format, err)
	}
	q, err := r.readSSH1MPInt()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errBadSSH1Format, err)
	}

	k.D, k.IQMP, k.P, k.Q = d, iqmp, p, q
	return true, nil
}

// SaveSSH1RSA renders an SSH-1 RSA private key in the legacy file
// format. If passphrase is non-empty the private block is encrypted
// with 3des-ssh1 under the same key derivation Decrypt expects; the
// paired 16-bit random words forming the format's weak integrity check
// are freshly randomized on every save.
func SaveSSH1RSA(k *SSH1RSAKey, passphrase string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(ssh1Magic)
	buf.WriteByte('\n')

	cipherID := byte(SSH1CipherNone)
	if passphrase != "" {
		cipherID = SSH1Cipher3DES
	}
	buf.WriteByte(cipherID)

	var reserved [4]byte
	buf.Write(reserved[:])

	var bits [4]byte
	binary.BigEndian.PutUint32(bits[:], uint32(k.N.BitLen()))
	buf.Write(bits[:])

	writeSSH1MPInt(&buf, k.N)
	writeSSH1MPInt(&buf, k.E)
	writeSSH1String(&buf, k.Comment)

	var plain bytes.Buffer
	var word [2]byte
	if _, err := rand.Read(word[:]); err != nil {
		return nil, err
	}
	plain.Write(word[:])
	plain.Write(word[:])
	writeSSH1MPInt(&plain, k.D)
	writeSSH1MPInt(&plain, k.IQMP)
	writeSSH1MPInt(&plain, k.P)
	writeSSH1MPInt(&plain, k.Q)

	private := plain.Bytes()
	if passphrase != "" {
		c, err := cipher.NewTripleDESSSH1(ssh1DeriveKey(passphrase))
		if err != nil {
			return nil, err
		}
		padded := padToBlock(private, c.BlockSize())
		out := make([]byte, len(padded))
		c.Encrypt(out, padded)
		private = out
	}
	buf.Write(private)

	return buf.Bytes(), nil
}

func writeSSH1MPInt(buf *bytes.Buffer, v *big.Int) {
	b := v.Bytes()
	var bits [2]byte
	binary.BigEndian.PutUint16(bits[:], uint16(v.BitLen()))
	buf.Write(bits[:])
	buf.Write(b)
}

func writeSSH1String(buf *bytes.Buffer, s string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	buf.Write(n[:])
	buf.WriteString(s)
}

// ssh1DeriveKey expands a passphrase into the 24-byte key the 3des-ssh1
// cipher needs: the first 16 bytes are MD5(passphrase), and the last 8
// are the leading bytes of MD5(MD5(passphrase) || passphrase). This
// two-round extension is how the legacy format stretches a single MD5
// digest to cover three independent 8-byte DES keys.
func ssh1DeriveKey(passphrase string) []byte {
	first := md5.Sum([]byte(passphrase))
	h := md5.New()
	h.Write(first[:])
	h.Write([]byte(passphrase))
	second := h.Sum(nil)

	key := make([]byte, 24)
	copy(key[:16], first[:])
	copy(key[16:], second[:8])
	return key
}

// ssh1Reader is a minimal cursor over the SSH-1 wire encodings this
// format uses: big-endian fixed-width integers, length-prefixed
// strings, and bit-length-prefixed mpints.
type ssh1Reader struct {
	data []byte
	pos  int
}

func (r *ssh1Reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errBadSSH1Format
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *ssh1Reader) readUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, errBadSSH1Format
	}
	v := binary.BigEndian.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

func (r *ssh1Reader) readUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, errBadSSH1Format
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *ssh1Reader) readSSH1MPInt() (*big.Int, error) {
	bits, err := r.readUint16()
	if err != nil {
		return nil, err
	}
	nbytes := (int(bits) + 7) / 8
	if r.pos+nbytes > len(r.data) {
		return nil, errBadSSH1Format
	}
	v := new(big.Int).SetBytes(r.data[r.pos : r.pos+nbytes])
	r.pos += nbytes
	return v, nil
}

func (r *ssh1Reader) readSSH1String() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.data) {
		return "", errBadSSH1Format
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}
