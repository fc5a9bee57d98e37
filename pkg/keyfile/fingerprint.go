// Package keyfile implements the on-disk key container formats: PPK
// v2/v3, the legacy SSH-1 RSA key file, and OpenSSH import/export
// (PEM and the openssh-key-v1 container), plus public-key
// fingerprinting.
package keyfile

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// FingerprintAlgorithm selects the hash a Fingerprint call renders.
type FingerprintAlgorithm int

const (
	// FingerprintMD5 renders the legacy colon-separated hex digest of
	// the public blob.
	FingerprintMD5 FingerprintAlgorithm = iota
	// FingerprintSHA256 renders the OpenSSH-default base64 digest,
	// prefixed "SHA256:".
	FingerprintSHA256
)

// Fingerprint renders publicBlob (the SSH wire-format public key blob)
// under the requested algorithm.
func Fingerprint(publicBlob []byte, alg FingerprintAlgorithm) string {
	switch alg {
	case FingerprintSHA256:
		sum := sha256.Sum256(publicBlob)
		return "SHA256:" + strings.TrimRight(base64.StdEncoding.EncodeToString(sum[:]), "=")
	default:
		sum := md5.Sum(publicBlob)
		parts := make([]string, len(sum))
		for i, b := range sum {
			parts[i] = fmt.Sprintf("%02x", b)
		}
		return "MD5:" + strings.Join(parts, ":")
	}
}
