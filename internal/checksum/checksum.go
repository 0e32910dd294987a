// Package checksum implements the Internet checksum (RFC 1071): the
// one's-complement of the one's-complement sum of 16-bit big-endian
// words, with an odd trailing byte padded with zero.
//
// Partial checksums are carried in inverted (wire) form, so a value
// computed over one region can be continued over another. This is how
// the internet layer seeds the transport layer with the pseudo-header
// contribution: the transport layer verifies a datagram by continuing
// from the seed over the full header and payload and checking for an
// exact zero.
package checksum

// Initial is the empty partial checksum in inverted form.
const Initial uint16 = 0xffff

// Checksum continues the checksum from the inverted partial over b and
// returns the inverted result.
func Checksum(b []byte, partial uint16) uint16 {
	sum := uint32(^partial)
	for len(b) >= 2 {
		sum += uint32(b[0])<<8 | uint32(b[1])
		b = b[2:]
	}
	if len(b) == 1 {
		sum += uint32(b[0]) << 8
	}
	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}
