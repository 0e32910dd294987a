package udp

import (
	"github.com/netleaf/netleaf/internal/checksum"
	"github.com/netleaf/netleaf/internal/header"
	"github.com/netleaf/netleaf/internal/logging"
	"github.com/netleaf/netleaf/internal/tcpip"
)

// RequestSend starts a send on c. It acquires a transmit buffer,
// reserves header room, and invokes the connection's SendData callback
// with the writable payload region; the callback emits the datagram
// with Send or SendTo. Whatever the callback does, any buffer still
// pending afterwards is released before RequestSend returns.
//
// Returns tcpip.ErrNoBufferSpace if no buffer could be acquired; the
// connection is left unchanged. Otherwise returns the callback's
// result.
func (s *Stack) RequestSend(c *Conn) error {
	pkt, err := s.pool.Get()
	if err != nil {
		s.logger.Warn("cannot allocate transmit buffer",
			logging.KeyLocalPort, c.localPort,
			logging.KeyError, err.Error())
		return tcpip.ErrNoBufferSpace
	}
	pkt.Reserve(headerRoom)
	c.pendingTx = pkt

	err = c.ops.SendData(c, pkt.Tail())

	// Unconditional cleanup: if no emit call took ownership, the
	// buffer is released here regardless of the callback's outcome.
	if c.pendingTx != nil {
		c.pendingTx.Release()
		c.pendingTx = nil
	}
	return err
}

// SendTo frames data as a datagram to peer and hands it to the
// internet layer. It is callable only from within a SendData callback;
// use outside that context is a contract violation and unguarded.
//
// data longer than the buffer's remaining capacity is clamped, and it
// may alias the writable region passed to SendData. The dispatcher's
// result is returned unchanged.
func (s *Stack) SendTo(c *Conn, peer tcpip.FullAddress, data []byte) error {
	// Take ownership of the pending buffer back from the connection so
	// the cleanup in RequestSend cannot release it a second time.
	pkt := c.pendingTx
	c.pendingTx = nil

	if len(data) > pkt.Tailroom() {
		data = data[:pkt.Tailroom()]
	}
	pkt.Append(data)

	hdr := header.UDP(pkt.Prepend(header.UDPMinimumSize))
	hdr.Encode(&header.UDPFields{
		SrcPort:  c.localPort,
		DstPort:  peer.Port,
		Length:   uint16(pkt.Len()),
		Checksum: 0,
	})
	hdr.SetChecksum(checksum.Checksum(pkt.Bytes(), checksum.Initial))

	s.logger.Debug("tx",
		logging.KeySrcPort, c.localPort,
		logging.KeyDstPort, peer.Port,
		logging.KeyLength, pkt.Len())
	s.metrics.RecordSend(len(data))

	// The internet layer owns the packet from here; it folds the
	// pseudo-header into the checksum field before transmission.
	err := s.network.Transmit(pkt, header.UDPProtocolNumber, peer, header.UDPChecksumOffset)
	if err != nil {
		s.metrics.RecordTransmitError()
	}
	return err
}

// Send frames data as a datagram to the connection's default peer.
// Like SendTo, it is callable only from within a SendData callback.
func (s *Stack) Send(c *Conn, data []byte) error {
	return s.SendTo(c, c.peer, data)
}
