package udp

import (
	"github.com/netleaf/netleaf/internal/buffer"
	"github.com/netleaf/netleaf/internal/checksum"
	"github.com/netleaf/netleaf/internal/header"
	"github.com/netleaf/netleaf/internal/logging"
	"github.com/netleaf/netleaf/internal/metrics"
	"github.com/netleaf/netleaf/internal/tcpip"
)

// DeliverPacket is the receive entry point, called by the internet
// layer with a datagram whose lower-layer framing has been stripped.
// src and dst carry the network addresses; the ports are filled here
// from the header. pshdrSum is the pseudo-header checksum seed in
// inverted partial form.
//
// Malformed datagrams are dropped with tcpip.ErrInvalidDatagram and
// never reach the application. A valid datagram with no matching
// connection is dropped with tcpip.ErrNoConnection. The packet is
// released on every path.
func (s *Stack) DeliverPacket(pkt *buffer.Packet, src, dst tcpip.FullAddress, pshdrSum uint16) error {
	defer pkt.Release()

	view := pkt.Bytes()
	if len(view) < header.UDPMinimumSize {
		s.dropInvalid(metrics.DropTooShort, "datagram shorter than header", pkt.Len())
		return tcpip.ErrInvalidDatagram
	}

	hdr := header.UDP(view)
	wireLen := int(hdr.Length())
	if wireLen < header.UDPMinimumSize || wireLen > pkt.Len() {
		s.dropInvalid(metrics.DropBadLength, "bad length field", wireLen)
		return tcpip.ErrInvalidDatagram
	}

	// A zero checksum field means the sender did not use a checksum;
	// verification is skipped, as UDP mandates.
	if hdr.Checksum() != 0 {
		if checksum.Checksum(view[:wireLen], pshdrSum) != 0 {
			s.dropInvalid(metrics.DropBadChecksum, "checksum mismatch", wireLen)
			return tcpip.ErrInvalidDatagram
		}
	}

	src.Port = hdr.SourcePort()
	dst.Port = hdr.DestinationPort()
	conn := s.lookup(dst.Port)

	// Discard padding beyond the declared length, then the header,
	// leaving only payload.
	pkt.CapLength(wireLen)
	pkt.StripFront(header.UDPMinimumSize)

	if conn == nil {
		s.metrics.RecordDrop(metrics.DropNoConnection)
		s.logger.Debug("no connection listening",
			logging.KeyDstPort, dst.Port)
		return tcpip.ErrNoConnection
	}

	s.logger.Debug("rx",
		logging.KeySrcPort, src.Port,
		logging.KeyDstPort, dst.Port,
		logging.KeyLength, wireLen)
	s.metrics.RecordReceive(pkt.Len())

	return conn.ops.NewData(conn, pkt.Bytes(), src, dst)
}

// dropInvalid records an Invalid drop. The warning is rate limited;
// the drop itself never is.
func (s *Stack) dropInvalid(reason, msg string, length int) {
	s.metrics.RecordDrop(reason)
	if s.invalidLog.Allow() {
		s.logger.Warn(msg,
			logging.KeyReason, reason,
			logging.KeyLength, length)
	}
}
