package udp

import (
	"github.com/netleaf/netleaf/internal/buffer"
	"github.com/netleaf/netleaf/internal/tcpip"
)

// Operations is the callback pair an application supplies for a
// connection. The stack invokes it; the application never calls it.
type Operations interface {
	// SendData produces the outbound payload for a send requested with
	// Stack.RequestSend. b is the writable payload region of the
	// pre-reserved transmit buffer; the callback writes at most len(b)
	// bytes and emits them with Stack.Send or Stack.SendTo.
	SendData(c *Conn, b []byte) error

	// NewData consumes an inbound payload. src and dst carry the
	// network addresses filled by the internet layer and the ports
	// from the datagram header. payload is only valid for the duration
	// of the call.
	NewData(c *Conn, payload []byte, src, dst tcpip.FullAddress) error
}

// OperationFuncs adapts plain functions to the Operations interface.
// A nil function is a no-op.
type OperationFuncs struct {
	Produce func(c *Conn, b []byte) error
	Consume func(c *Conn, payload []byte, src, dst tcpip.FullAddress) error
}

// SendData implements Operations.
func (o OperationFuncs) SendData(c *Conn, b []byte) error {
	if o.Produce == nil {
		return nil
	}
	return o.Produce(c, b)
}

// NewData implements Operations.
func (o OperationFuncs) NewData(c *Conn, payload []byte, src, dst tcpip.FullAddress) error {
	if o.Consume == nil {
		return nil
	}
	return o.Consume(c, payload, src, dst)
}

// Conn is one UDP endpoint. The application creates and owns it; the
// stack only tracks it in the registry between Open and Close.
type Conn struct {
	ops  Operations
	peer tcpip.FullAddress

	// localPort is the bound port; 0 means unbound, which matches any
	// destination port not claimed by a specific binding.
	localPort uint16

	// pendingTx is the transmit buffer reserved for an in-progress
	// send. It is non-nil only between buffer acquisition in
	// RequestSend and either emission or cleanup.
	pendingTx *buffer.Packet
}

// NewConn creates a connection with the given callbacks and default
// peer. The connection is not usable until opened on a stack.
func NewConn(ops Operations, peer tcpip.FullAddress) *Conn {
	return &Conn{ops: ops, peer: peer}
}

// LocalPort returns the bound local port, or 0 if unbound.
func (c *Conn) LocalPort() uint16 {
	return c.localPort
}

// Peer returns the default destination used by Stack.Send.
func (c *Conn) Peer() tcpip.FullAddress {
	return c.peer
}

// SetPeer changes the default destination used by Stack.Send.
func (c *Conn) SetPeer(peer tcpip.FullAddress) {
	c.peer = peer
}
