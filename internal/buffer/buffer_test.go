package buffer

import (
	"bytes"
	"errors"
	"testing"
)

func TestPacket_AppendPrepend(t *testing.T) {
	pkt := New(64)
	pkt.Reserve(16)

	if pkt.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", pkt.Len())
	}
	if pkt.Headroom() != 16 {
		t.Errorf("Headroom() = %d, want 16", pkt.Headroom())
	}
	if pkt.Tailroom() != 48 {
		t.Errorf("Tailroom() = %d, want 48", pkt.Tailroom())
	}

	pkt.Append([]byte("payload"))
	if !bytes.Equal(pkt.Bytes(), []byte("payload")) {
		t.Errorf("Bytes() = %q, want %q", pkt.Bytes(), "payload")
	}

	hdr := pkt.Prepend(4)
	copy(hdr, "HDR!")
	if !bytes.Equal(pkt.Bytes(), []byte("HDR!payload")) {
		t.Errorf("Bytes() = %q, want %q", pkt.Bytes(), "HDR!payload")
	}
	if pkt.Headroom() != 12 {
		t.Errorf("Headroom() after Prepend = %d, want 12", pkt.Headroom())
	}
}

func TestPacket_TailThenExtend(t *testing.T) {
	pkt := New(32)
	pkt.Reserve(8)

	tail := pkt.Tail()
	if len(tail) != 24 {
		t.Fatalf("len(Tail()) = %d, want 24", len(tail))
	}

	// Writing into the tail becomes visible after Extend.
	n := copy(tail, "abc")
	pkt.Extend(n)
	if !bytes.Equal(pkt.Bytes(), []byte("abc")) {
		t.Errorf("Bytes() = %q, want %q", pkt.Bytes(), "abc")
	}
}

func TestPacket_TrimCapStrip(t *testing.T) {
	pkt := New(32)
	pkt.Append([]byte("0123456789"))

	pkt.TrimEnd(2)
	if !bytes.Equal(pkt.Bytes(), []byte("01234567")) {
		t.Errorf("after TrimEnd: %q", pkt.Bytes())
	}

	pkt.CapLength(5)
	if !bytes.Equal(pkt.Bytes(), []byte("01234")) {
		t.Errorf("after CapLength: %q", pkt.Bytes())
	}

	// CapLength beyond the current length is a no-op.
	pkt.CapLength(100)
	if pkt.Len() != 5 {
		t.Errorf("after CapLength(100): Len() = %d, want 5", pkt.Len())
	}

	pkt.StripFront(2)
	if !bytes.Equal(pkt.Bytes(), []byte("234")) {
		t.Errorf("after StripFront: %q", pkt.Bytes())
	}

	// Stripped bytes become headroom again.
	if pkt.Headroom() != 2 {
		t.Errorf("Headroom() = %d, want 2", pkt.Headroom())
	}
}

func TestPacket_ReserveNonEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()

	pkt := New(16)
	pkt.Append([]byte("x"))
	pkt.Reserve(4)
}

func TestPool_Exhaustion(t *testing.T) {
	pool := NewPool(32, 2)

	a, err := pool.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	b, err := pool.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if _, err := pool.Get(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Get() error = %v, want ErrExhausted", err)
	}
	if pool.Outstanding() != 2 {
		t.Errorf("Outstanding() = %d, want 2", pool.Outstanding())
	}

	a.Release()
	if pool.Outstanding() != 1 {
		t.Errorf("Outstanding() after release = %d, want 1", pool.Outstanding())
	}

	// The released packet is reusable and comes back empty.
	c, err := pool.Get()
	if err != nil {
		t.Fatalf("Get() after release error = %v", err)
	}
	if c.Len() != 0 || c.Headroom() != 0 {
		t.Errorf("reused packet not reset: len=%d headroom=%d", c.Len(), c.Headroom())
	}

	b.Release()
	c.Release()
	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", pool.Outstanding())
	}
}

func TestPool_UnlimitedWhenZero(t *testing.T) {
	pool := NewPool(8, 0)
	for i := 0; i < 100; i++ {
		if _, err := pool.Get(); err != nil {
			t.Fatalf("Get() %d error = %v", i, err)
		}
	}
}

func TestStandalonePacket_ReleaseNoop(t *testing.T) {
	pkt := New(8)
	pkt.Append([]byte("ab"))
	pkt.Release() // must not panic
}
