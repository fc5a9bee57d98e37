package keyfile

import (
	"bytes"
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// ppk2KDF derives a 32-byte AES-256 key from passphrase using PPK v2's
// SHA-1-based KDF: successive SHA-1 digests of a big-endian sequence
// counter concatenated with the passphrase, concatenated together and
// truncated to the key length.
func ppk2KDF(passphrase string, keyLen int) []byte {
	out := make([]byte, 0, keyLen)
	for seq := uint32(0); len(out) < keyLen; seq++ {
		h := sha1.New()
		var seqField [4]byte
		binary.BigEndian.PutUint32(seqField[:], seq)
		h.Write(seqField[:])
		h.Write([]byte(passphrase))
		out = append(out, h.Sum(nil)...)
	}
	return out[:keyLen]
}

// ppk2MACKey derives the HMAC-SHA1 key PPK v2 uses for its integrity
// check, the fixed string "putty-private-key-file-mac-key" hashed
// together with the passphrase.
func ppk2MACKey(passphrase string) []byte {
	h := sha1.New()
	h.Write([]byte("putty-private-key-file-mac-key"))
	h.Write([]byte(passphrase))
	return h.Sum(nil)
}

// LoadPPK2 parses a legacy PPK v2 file (SHA-1 KDF, HMAC-SHA1
// integrity, AES-256-CBC with a zero IV).
func LoadPPK2(data []byte, passphrase string) (*PPK, error) {
	fields, publicLines, privateLines, err := parsePPKHeader(data, 2)
	if err != nil {
		return nil, err
	}

	algorithm, ok := fields["PuTTY-User-Key-File-2"]
	if !ok {
		return nil, fmt.Errorf("%w: missing algorithm header", errMalformedPPK)
	}
	encryption := fields["Encryption"]
	comment := fields["Comment"]

	publicBlob, err := decodeBase64Lines(publicLines)
	if err != nil {
		return nil, fmt.Errorf("%w: public blob: %v", errMalformedPPK, err)
	}
	privateBlob, err := decodeBase64Lines(privateLines)
	if err != nil {
		return nil, fmt.Errorf("%w: private blob: %v", errMalformedPPK, err)
	}
	wantMAC, err := hexDecode(fields["Private-MAC"])
	if err != nil {
		return nil, fmt.Errorf("%w: Private-MAC: %v", errMalformedPPK, err)
	}

	plainPrivate := privateBlob
	if encryption != "none" && encryption != "" {
		if len(privateBlob)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("%w: private blob not block-aligned", errMalformedPPK)
		}
		key := ppk2KDF(passphrase, 32)
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		iv := make([]byte, aes.BlockSize)
		cbc := stdcipher.NewCBCDecrypter(block, iv)
		plainPrivate = make([]byte, len(privateBlob))
		cbc.CryptBlocks(plainPrivate, privateBlob)
	}

	macKey := ppk2MACKey(passphrase)
	computedMAC := ppk2MAC(macKey, algorithm, encryption, comment, publicBlob, plainPrivate)
	if subtle.ConstantTimeCompare(computedMAC, wantMAC) != 1 {
		if encryption != "none" && encryption != "" {
			return nil, ErrWrongPassphrase
		}
		return nil, ErrCorruptPPK
	}

	return &PPK{
		Algorithm:  algorithm,
		Comment:    comment,
		Public:     publicBlob,
		Private:    plainPrivate,
		encryption: encryption,
	}, nil
}

// SavePPK2 renders p as a legacy PPK v2 file.
func SavePPK2(p *PPK, passphrase string) ([]byte, error) {
	encryption := "none"
	privateBlob := p.Private
	plainForMAC := p.Private
	if passphrase != "" {
		encryption = "aes256-cbc"
		key := ppk2KDF(passphrase, 32)
		padded := padToBlock(p.Private, aes.BlockSize)
		plainForMAC = padded
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		iv := make([]byte, aes.BlockSize)
		cbc := stdcipher.NewCBCEncrypter(block, iv)
		privateBlob = make([]byte, len(padded))
		cbc.CryptBlocks(privateBlob, padded)
	}

	macKey := ppk2MACKey(passphrase)
	mac := ppk2MAC(macKey, p.Algorithm, encryption, p.Comment, p.Public, plainForMAC)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PuTTY-User-Key-File-2: %s\n", p.Algorithm)
	fmt.Fprintf(&buf, "Encryption: %s\n", encryption)
	fmt.Fprintf(&buf, "Comment: %s\n", p.Comment)
	writeBase64Lines(&buf, "Public-Lines", p.Public)
	writeBase64Lines(&buf, "Private-Lines", privateBlob)
	fmt.Fprintf(&buf, "Private-MAC: %s\n", hexEncode(mac))
	return buf.Bytes(), nil
}

// ppk2MAC computes the HMAC-SHA1 PPK v2 stores, over the same
// canonical length-prefixed structure PPK v3 uses (algorithm,
// encryption, comment, public blob, plaintext private blob -- the MAC
// always covers the plaintext so a wrong passphrase is detectable
// after decryption, not the on-disk ciphertext).
func ppk2MAC(macKey []byte, algorithm, encryption, comment string, public, plainPrivate []byte) []byte {
	var buf bytes.Buffer
	writeLenPrefixed(&buf, []byte(algorithm))
	writeLenPrefixed(&buf, []byte(encryption))
	writeLenPrefixed(&buf, []byte(comment))
	writeLenPrefixed(&buf, public)
	writeLenPrefixed(&buf, plainPrivate)

	h := hmac.New(sha1.New, macKey)
	h.Write(buf.Bytes())
	return h.Sum(nil)
}
