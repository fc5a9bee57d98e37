// Package cipher implements the symmetric cipher suite used to encrypt
// SSH packet traffic once key exchange has completed: AES in several
// modes, the OpenSSH ChaCha20-Poly1305 construction, 3DES, Blowfish and
// Arcfour, each described by a declared key/block/IV length so the
// transport layer can negotiate and key them uniformly.
//
// Grounded on the teacher's internal/crypto package (which wired
// X25519+ChaCha20-Poly1305 for its own tunnel framing) and generalised
// to the full negotiable cipher list.
package cipher

import "errors"

// ErrShortKey is returned by the New* constructors when the supplied key
// material is shorter than the cipher's declared KeyLen.
var ErrShortKey = errors.New("cipher: key material too short")

// ErrShortIV is returned by the New* constructors when the supplied IV/nonce material is
// shorter than the cipher's declared IVLen.
var ErrShortIV = errors.New("cipher: iv material too short")

// Flags records properties of a cipher variant that the transport
// layer needs to know about structurally (not just its byte lengths).
type Flags uint32

const (
	// FlagIsCBC marks block-chained modes, which the transport layer
	// must decrypt one block at a time to learn the packet length
	// before the rest can be processed.
	FlagIsCBC Flags = 1 << iota
	// FlagIsAEAD marks modes (GCM, ChaCha20-Poly1305) which fold MAC
	// computation into the cipher itself; the transport layer must
	// not separately apply a MAC algorithm on top.
	FlagIsAEAD
	// FlagSSH1Only marks legacy ciphers only meaningful in the SSH-1
	// keyfile/framing contract.
	FlagSSH1Only
)

// Packet is a bidirectional packet cipher: separate Encrypt/Decrypt
// streams, each with its own chaining state, both built from the one
// key and IV passed to the constructor. Since SSH derives distinct
// client-to-server and server-to-client keys from the same exchange
// hash, a connection builds one Packet per direction.
type Packet interface {
	// Encrypt encrypts src into dst in place (dst and src may be the
	// same slice), which must be a whole number of blocks.
	Encrypt(dst, src []byte)

	// Decrypt is the inverse of Encrypt.
	Decrypt(dst, src []byte)

	// BlockSize returns the cipher's block length in bytes (1 for
	// stream ciphers).
	BlockSize() int

	// IVLen returns the length of the IV/nonce this cipher consumes.
	IVLen() int

	// KeyLen returns the length of key material this cipher consumes.
	KeyLen() int

	// Flags reports structural properties of this cipher variant.
	Flags() Flags
}

// AEADPacket is implemented by ciphers that also provide integrity
// (AES-GCM): Seal/Open replace the separate MAC step the plain Packet
// interface would otherwise need. ChaCha20Poly1305 does not implement
// it; it exposes EncryptLength/DecryptLength and SealPayload/OpenPayload
// instead.
type AEADPacket interface {
	Packet

	// Seal encrypts and authenticates plaintext, appending the result
	// (ciphertext || tag) to dst and returning the extended slice.
	// associatedData is authenticated but not encrypted (the packet
	// length field, for the aes*-gcm@openssh.com construction).
	Seal(dst, nonce, plaintext, associatedData []byte) []byte

	// Open authenticates and decrypts ciphertext (which must include
	// the trailing tag), returning the plaintext appended to dst, or
	// an error if authentication fails.
	Open(dst, nonce, ciphertext, associatedData []byte) ([]byte, error)

	// TagSize returns the length of the authentication tag in bytes.
	TagSize() int
}

// Algorithm names, as negotiated in SSH KEXINIT encryption-algorithms
// lists.
const (
	NameAES128CBC        = "aes128-cbc"
	NameAES192CBC        = "aes192-cbc"
	NameAES256CBC        = "aes256-cbc"
	NameAES128CTR        = "aes128-ctr"
	NameAES192CTR        = "aes192-ctr"
	NameAES256CTR        = "aes256-ctr"
	NameAES128GCM        = "aes128-gcm@openssh.com"
	NameAES256GCM        = "aes256-gcm@openssh.com"
	NameChaCha20Poly1305 = "chacha20-poly1305@openssh.com"
	NameTripleDESCBC     = "3des-cbc"
	NameTripleDESSSH1    = "3des-ssh1" // SSH-1 only, distinct keying
	NameBlowfishCBC      = "blowfish-cbc"
	NameArcfour          = "arcfour"
)
