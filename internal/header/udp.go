// Package header defines the wire formats understood by the stack.
package header

import (
	"encoding/binary"

	"github.com/netleaf/netleaf/internal/tcpip"
)

const (
	udpSrcPort  = 0
	udpDstPort  = 2
	udpLength   = 4
	udpChecksum = 6
)

const (
	// UDPMinimumSize is the size of the UDP header, and therefore the
	// minimum size of a valid UDP datagram.
	UDPMinimumSize = 8

	// UDPChecksumOffset is the offset of the checksum field within the
	// header, handed to the internet layer for pseudo-header
	// finalization on transmit.
	UDPChecksumOffset = udpChecksum

	// UDPProtocolNumber is UDP's transport protocol number.
	UDPProtocolNumber tcpip.TransportProtocolNumber = 17
)

// UDPFields holds the header fields of a UDP datagram in host order.
type UDPFields struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16
	Checksum uint16
}

// UDP is a UDP header view over a byte slice. All multi-byte fields
// are in network byte order.
type UDP []byte

// SourcePort returns the source port field.
func (b UDP) SourcePort() uint16 {
	return binary.BigEndian.Uint16(b[udpSrcPort:])
}

// DestinationPort returns the destination port field.
func (b UDP) DestinationPort() uint16 {
	return binary.BigEndian.Uint16(b[udpDstPort:])
}

// Length returns the length field: header plus payload, in bytes.
func (b UDP) Length() uint16 {
	return binary.BigEndian.Uint16(b[udpLength:])
}

// Checksum returns the checksum field.
func (b UDP) Checksum() uint16 {
	return binary.BigEndian.Uint16(b[udpChecksum:])
}

// SetChecksum sets the checksum field.
func (b UDP) SetChecksum(csum uint16) {
	binary.BigEndian.PutUint16(b[udpChecksum:], csum)
}

// Encode writes the given fields into the header.
func (b UDP) Encode(f *UDPFields) {
	binary.BigEndian.PutUint16(b[udpSrcPort:], f.SrcPort)
	binary.BigEndian.PutUint16(b[udpDstPort:], f.DstPort)
	binary.BigEndian.PutUint16(b[udpLength:], f.Length)
	binary.BigEndian.PutUint16(b[udpChecksum:], f.Checksum)
}
