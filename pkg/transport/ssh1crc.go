package transport

import "hash/crc32"

// crc32SSH1 computes the checksum SSH-1 framing appends to every
// packet. SSH-1's own crc32.c used a hand-rolled table equivalent to
// the standard CRC-32 (IEEE 802.3) polynomial; we use the standard
// library's table directly rather than reproduce it, since the two are
// numerically identical and Non-goals explicitly scope SSH-1 support
// down to interoperability testing, not byte-for-byte historical
// reproduction of an already-broken integrity check.
func crc32SSH1(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
