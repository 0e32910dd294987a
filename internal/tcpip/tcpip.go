// Package tcpip defines the types shared across the layers of the
// netleaf stack: protocol numbers, transport addresses, the dispatcher
// interface between the transport and internet layers, and the error
// taxonomy returned by protocol operations.
package tcpip

import (
	"errors"
	"net/netip"

	"github.com/netleaf/netleaf/internal/buffer"
)

// TransportProtocolNumber identifies a transport protocol in the
// internet-layer protocol field.
type TransportProtocolNumber uint8

var (
	// ErrPortInUse is returned when a bind conflicts with an existing
	// connection, or when the ephemeral port range is exhausted.
	ErrPortInUse = errors.New("port in use")

	// ErrNoBufferSpace is returned when a transmit buffer cannot be
	// acquired. No partial state is retained.
	ErrNoBufferSpace = errors.New("no buffer space")

	// ErrInvalidDatagram is returned for malformed inbound datagrams:
	// too short, bad length field, or checksum mismatch. The datagram
	// is discarded without notifying any connection.
	ErrInvalidDatagram = errors.New("invalid datagram")

	// ErrNoConnection is returned when a valid datagram arrives for a
	// port with no listener. The datagram is silently dropped.
	ErrNoConnection = errors.New("no connection")

	// ErrNoRoute is returned by a dispatcher that has no path to the
	// destination address.
	ErrNoRoute = errors.New("no route to destination")
)

// FullAddress is a transport-layer address. The internet layer fills
// Addr when delivering inbound datagrams; the transport layer fills
// Port from the datagram header.
type FullAddress struct {
	Addr netip.Addr
	Port uint16
}

// Network is the internet-layer dispatcher below the transport layer.
//
// Transmit takes ownership of pkt, performs routing, folds the
// pseudo-header contribution into the checksum field at checksumOffset,
// and sends the datagram toward dst.
type Network interface {
	Transmit(pkt *buffer.Packet, proto TransportProtocolNumber, dst FullAddress, checksumOffset int) error
}
