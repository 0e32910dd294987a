package udp

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/netleaf/netleaf/internal/buffer"
	"github.com/netleaf/netleaf/internal/logging"
	"github.com/netleaf/netleaf/internal/metrics"
	"github.com/netleaf/netleaf/internal/tcpip"
)

const (
	// headerRoom is the headroom reserved on transmit buffers for the
	// UDP header plus the worst-case internet and link headers the
	// layers below will prepend.
	headerRoom = 42

	// ephemeralBase is the first port eligible for ephemeral
	// assignment.
	ephemeralBase = 1024
)

// Config holds tuning parameters for a Stack.
type Config struct {
	// MaxDatagramSize bounds the payload capacity of a transmit
	// buffer.
	MaxDatagramSize int

	// TxBuffers limits outstanding transmit buffers. 0 means
	// unlimited.
	TxBuffers int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxDatagramSize: 1472,
		TxBuffers:       64,
	}
}

// Stack is one UDP transport layer instance: the connection registry,
// the ephemeral port cursor, and the transmit buffer pool, bound to
// one internet-layer dispatcher. Stacks are independent; tests may
// create as many as they need.
//
// A Stack is not synchronized. All calls, including inbound deliveries
// from the dispatcher, must come from a single goroutine.
type Stack struct {
	network tcpip.Network
	pool    *buffer.Pool
	logger  *slog.Logger
	metrics *metrics.Metrics

	// conns is the registry in insertion order, oldest first. The
	// order is the wildcard tie-break and must be preserved.
	conns []*Conn

	// ephemeralPort is the next candidate for ephemeral assignment.
	// It only advances; reaching 0 means the range is exhausted for
	// the lifetime of the stack.
	ephemeralPort uint16

	// invalidLog throttles warnings about malformed inbound datagrams
	// so a garbage flood cannot saturate the log.
	invalidLog *rate.Limiter
}

// NewStack creates a stack on top of the given dispatcher. A nil m
// uses the process-wide default metrics.
func NewStack(network tcpip.Network, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Stack {
	if m == nil {
		m = metrics.Default()
	}
	return &Stack{
		network:       network,
		pool:          buffer.NewPool(cfg.MaxDatagramSize+headerRoom, cfg.TxBuffers),
		logger:        logger.With(slog.String(logging.KeyComponent, "udp")),
		metrics:       m,
		ephemeralPort: ephemeralBase,
		invalidLog:    rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// bind records port on c after checking it against the registry.
// Binding port 0 is never checked and always succeeds; a zero port is
// the wildcard sentinel, not a claim on a port.
func (s *Stack) bind(c *Conn, port uint16) error {
	if port != 0 {
		for _, existing := range s.conns {
			if existing.localPort == port {
				return tcpip.ErrPortInUse
			}
		}
	}
	c.localPort = port
	return nil
}

// lookup returns the connection for a destination port: the first
// registered connection bound to exactly that port, else the first
// wildcard connection, else nil. First-match-wins by registry order is
// deliberate policy.
func (s *Stack) lookup(dstPort uint16) *Conn {
	var wildcard *Conn
	for _, c := range s.conns {
		if c.localPort == dstPort {
			return c
		}
		if c.localPort == 0 && wildcard == nil {
			wildcard = c
		}
	}
	return wildcard
}

// Open binds c to localPort and admits it into the registry. A zero
// localPort requests an ephemeral port. Returns tcpip.ErrPortInUse if
// the port is taken or the ephemeral range is exhausted.
func (s *Stack) Open(c *Conn, localPort uint16) error {
	if localPort == 0 {
		return s.openEphemeral(c)
	}

	if err := s.bind(c, localPort); err != nil {
		return err
	}
	s.register(c)
	return nil
}

// openEphemeral probes ports from the persistent cursor. The cursor
// advances across calls and is never reset by a close, so repeated
// requests probe forward rather than restarting at the base. When the
// cursor wraps to 0 the range is exhausted permanently.
func (s *Stack) openEphemeral(c *Conn) error {
	for ; s.ephemeralPort != 0; s.ephemeralPort++ {
		if s.ephemeralPort < ephemeralBase {
			continue
		}
		if s.bind(c, s.ephemeralPort) != nil {
			continue
		}
		s.ephemeralPort++
		s.register(c)
		return nil
	}
	return tcpip.ErrPortInUse
}

func (s *Stack) register(c *Conn) {
	s.conns = append(s.conns, c)
	s.metrics.RecordPortOpen()
	s.logger.Info("port opened", logging.KeyLocalPort, c.localPort)
}

// Close removes c from the registry. Closing a connection that is not
// open is a no-op. The ephemeral cursor is unaffected.
func (s *Stack) Close(c *Conn) {
	for i, existing := range s.conns {
		if existing == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			s.metrics.RecordPortClose()
			s.logger.Info("port closed", logging.KeyLocalPort, c.localPort)
			return
		}
	}
}
