// Package buffer provides the packet buffer used to carry datagrams
// between the layers of the stack.
//
// A Packet is a byte region with slack at both ends: headroom for
// lower layers to prepend their headers without copying, and tailroom
// for payload appended by upper layers. Ownership of a Packet is
// exclusive and moves between layers by explicit handoff; whichever
// layer holds a Packet last releases it.
package buffer

import "errors"

// ErrExhausted is returned by Pool.Get when the configured limit of
// outstanding packets has been reached.
var ErrExhausted = errors.New("packet pool exhausted")

// Packet is a mutable byte region with head and tail slack.
type Packet struct {
	storage []byte
	start   int
	end     int
	pool    *Pool
}

// New allocates a standalone packet with the given capacity and no
// data. Standalone packets are not pool-backed; Release is a no-op.
func New(capacity int) *Packet {
	return &Packet{storage: make([]byte, capacity)}
}

// Reserve sets aside n bytes of headroom. It may only be called on an
// empty packet.
func (p *Packet) Reserve(n int) {
	if p.start != p.end {
		panic("buffer: Reserve on non-empty packet")
	}
	if n > len(p.storage) {
		panic("buffer: Reserve beyond capacity")
	}
	p.start = n
	p.end = n
}

// Len returns the length of the data region.
func (p *Packet) Len() int {
	return p.end - p.start
}

// Bytes returns the data region. The slice aliases the packet's
// storage and is invalidated by further mutation.
func (p *Packet) Bytes() []byte {
	return p.storage[p.start:p.end]
}

// Headroom returns the space available for Prepend.
func (p *Packet) Headroom() int {
	return p.start
}

// Tailroom returns the space available for Extend or Append.
func (p *Packet) Tailroom() int {
	return len(p.storage) - p.end
}

// Tail returns the writable tail region beyond the data, without
// extending it. Bytes written there become part of the data region
// only after a matching Extend or Append.
func (p *Packet) Tail() []byte {
	return p.storage[p.end:]
}

// Extend grows the data region by n bytes at the tail and returns the
// newly exposed region.
func (p *Packet) Extend(n int) []byte {
	if n > p.Tailroom() {
		panic("buffer: Extend beyond tailroom")
	}
	r := p.storage[p.end : p.end+n]
	p.end += n
	return r
}

// Append copies b into the tail of the data region.
func (p *Packet) Append(b []byte) {
	copy(p.Extend(len(b)), b)
}

// Prepend grows the data region by n bytes at the head, consuming
// headroom, and returns the newly exposed region.
func (p *Packet) Prepend(n int) []byte {
	if n > p.start {
		panic("buffer: Prepend beyond headroom")
	}
	p.start -= n
	return p.storage[p.start : p.start+n]
}

// TrimEnd drops n bytes from the tail of the data region.
func (p *Packet) TrimEnd(n int) {
	if n > p.Len() {
		panic("buffer: TrimEnd beyond length")
	}
	p.end -= n
}

// CapLength truncates the data region to n bytes, discarding any tail
// beyond it. It is a no-op when the region is already at most n bytes.
func (p *Packet) CapLength(n int) {
	if n < 0 {
		panic("buffer: CapLength with negative length")
	}
	if p.Len() > n {
		p.end = p.start + n
	}
}

// StripFront drops n bytes from the head of the data region, turning
// them back into headroom.
func (p *Packet) StripFront(n int) {
	if n > p.Len() {
		panic("buffer: StripFront beyond length")
	}
	p.start += n
}

// Release returns a pool-backed packet to its pool. Releasing a
// standalone packet is a no-op. The packet must not be used after
// Release.
func (p *Packet) Release() {
	if p.pool != nil {
		p.pool.put(p)
	}
}

func (p *Packet) reset() {
	p.start = 0
	p.end = 0
}

// Pool hands out fixed-capacity packets up to a configurable limit of
// outstanding packets. It models a bounded allocator: Get fails once
// the limit is reached, and Release returns packets for reuse.
//
// Pool is not synchronized; the stack it serves is single-threaded.
type Pool struct {
	packetSize  int
	max         int
	outstanding int
	free        []*Packet
}

// NewPool creates a pool of packets with packetSize bytes of capacity
// each. maxOutstanding bounds the number of unreleased packets; zero
// means unbounded.
func NewPool(packetSize, maxOutstanding int) *Pool {
	return &Pool{packetSize: packetSize, max: maxOutstanding}
}

// Get acquires an empty packet. It returns ErrExhausted when the
// outstanding limit has been reached.
func (pl *Pool) Get() (*Packet, error) {
	if pl.max > 0 && pl.outstanding >= pl.max {
		return nil, ErrExhausted
	}
	pl.outstanding++
	if n := len(pl.free); n > 0 {
		pkt := pl.free[n-1]
		pl.free = pl.free[:n-1]
		return pkt, nil
	}
	return &Packet{storage: make([]byte, pl.packetSize), pool: pl}, nil
}

// Outstanding returns the number of packets currently held by callers.
func (pl *Pool) Outstanding() int {
	return pl.outstanding
}

func (pl *Pool) put(pkt *Packet) {
	pkt.reset()
	pl.outstanding--
	pl.free = append(pl.free, pkt)
}
