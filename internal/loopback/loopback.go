// Package loopback provides an in-memory internet-layer dispatcher.
//
// A loopback Network implements tcpip.Network for a single local
// address. Transmit finalizes the datagram's checksum with the
// pseudo-header contribution and delivers it synchronously: to the
// local receiver when addressed to the local address, to the linked
// peer when addressed to the peer's address, and nowhere otherwise.
package loopback

import (
	"encoding/binary"
	"net/netip"

	"github.com/netleaf/netleaf/internal/buffer"
	"github.com/netleaf/netleaf/internal/checksum"
	"github.com/netleaf/netleaf/internal/tcpip"
)

// Receiver is the transport layer above the dispatcher.
type Receiver interface {
	DeliverPacket(pkt *buffer.Packet, src, dst tcpip.FullAddress, pshdrSum uint16) error
}

// Network is one end of an in-memory link.
type Network struct {
	local    netip.Addr
	receiver Receiver
	peer     *Network
}

// New creates an unlinked network for the given local address. It
// delivers datagrams addressed to itself and drops everything else
// with tcpip.ErrNoRoute.
func New(local netip.Addr) *Network {
	return &Network{local: local}
}

// Pair creates two linked networks, one per address.
func Pair(a, b netip.Addr) (*Network, *Network) {
	na := New(a)
	nb := New(b)
	na.peer = nb
	nb.peer = na
	return na, nb
}

// Attach sets the transport layer that receives inbound datagrams.
func (n *Network) Attach(r Receiver) {
	n.receiver = r
}

// Addr returns the network's local address.
func (n *Network) Addr() netip.Addr {
	return n.local
}

// Transmit implements tcpip.Network. It takes ownership of pkt.
func (n *Network) Transmit(pkt *buffer.Packet, proto tcpip.TransportProtocolNumber, dst tcpip.FullAddress, checksumOffset int) error {
	target := n.route(dst.Addr)
	if target == nil || target.receiver == nil {
		pkt.Release()
		return tcpip.ErrNoRoute
	}

	ph := pseudoHeader(n.local, dst.Addr, proto, pkt.Len())
	seed := checksum.Checksum(ph, checksum.Initial)

	// Fold the pseudo-header into the checksum the transport layer
	// computed over its header and payload.
	view := pkt.Bytes()
	cur := binary.BigEndian.Uint16(view[checksumOffset:])
	binary.BigEndian.PutUint16(view[checksumOffset:], checksum.Checksum(ph, cur))

	src := tcpip.FullAddress{Addr: n.local}
	return target.receiver.DeliverPacket(pkt, src, tcpip.FullAddress{Addr: dst.Addr}, seed)
}

func (n *Network) route(dst netip.Addr) *Network {
	switch {
	case dst == n.local:
		return n
	case n.peer != nil && dst == n.peer.local:
		return n.peer
	default:
		return nil
	}
}

// pseudoHeader builds the IPv4 pseudo-header: source and destination
// addresses, a zero byte, the protocol number, and the transport
// length.
func pseudoHeader(src, dst netip.Addr, proto tcpip.TransportProtocolNumber, length int) []byte {
	ph := make([]byte, 12)
	s4 := src.As4()
	d4 := dst.As4()
	copy(ph[0:4], s4[:])
	copy(ph[4:8], d4[:])
	ph[9] = byte(proto)
	binary.BigEndian.PutUint16(ph[10:12], uint16(length))
	return ph
}
