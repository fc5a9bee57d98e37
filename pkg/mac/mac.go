// Package mac implements the message-authentication codes negotiated
// for SSH packet integrity: HMAC over SHA-1/SHA-256/MD5 in both the
// classic ordering (MAC over the plaintext packet) and the "-etm"
// encrypt-then-MAC ordering (MAC over the ciphertext), plus Poly1305
// bound to the ChaCha20-Poly1305 cipher.
//
// Grounded on the teacher's internal/crypto package's use of keyed
// hashing for its own framing, generalised to the full negotiable MAC
// list named in spec 4.4.
package mac

// MAC is a keyed message-authentication code bound to one direction of
// traffic.
type MAC interface {
	// Compute returns the tag over data (already including the
	// sequence number where the algorithm calls for it -- callers are
	// expected to prepend the 4-byte sequence number to data
	// themselves, matching RFC 4253's MAC construction).
	Compute(data []byte) []byte

	// Verify reports whether tag is the correct MAC over data, using a
	// constant-time comparison.
	Verify(data, tag []byte) bool

	// Size returns the tag length in bytes.
	Size() int

	// KeyLen returns the length of key material this MAC consumes.
	KeyLen() int

	// ETM reports whether this variant authenticates the ciphertext
	// (encrypt-then-MAC) rather than the plaintext.
	ETM() bool
}

// Algorithm names, as negotiated in SSH KEXINIT mac-algorithms lists.
const (
	NameHMACSHA1        = "hmac-sha1"
	NameHMACSHA1_96     = "hmac-sha1-96"
	NameHMACSHA256      = "hmac-sha2-256"
	NameHMACMD5         = "hmac-md5"
	NameHMACSHA1ETM     = "hmac-sha1-etm@openssh.com"
	NameHMACSHA256ETM   = "hmac-sha2-256-etm@openssh.com"
	NameHMACMD5ETM      = "hmac-md5-etm@openssh.com"
	NamePoly1305OpenSSH = "chacha20-poly1305@openssh.com" // implicit MAC, carried alongside the cipher name
)
