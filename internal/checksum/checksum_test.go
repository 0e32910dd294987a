package checksum

import (
	"encoding/binary"
	"testing"
)

func TestChecksum_RFC1071Example(t *testing.T) {
	// Worked example from RFC 1071 section 3.
	data := []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7}

	got := Checksum(data, Initial)
	if got != 0x220d {
		t.Errorf("Checksum() = %#04x, want 0x220d", got)
	}
}

func TestChecksum_Empty(t *testing.T) {
	if got := Checksum(nil, Initial); got != Initial {
		t.Errorf("Checksum(nil) = %#04x, want %#04x", got, Initial)
	}
}

func TestChecksum_OddLength(t *testing.T) {
	// A single byte is padded with zero: word 0x0100.
	got := Checksum([]byte{0x01}, Initial)
	if got != 0xfeff {
		t.Errorf("Checksum() = %#04x, want 0xfeff", got)
	}
}

func TestChecksum_Continuation(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04, 0xaa, 0xbb}

	whole := Checksum(data, Initial)

	// Continuing over a split at an even boundary must give the same
	// result as one pass.
	partial := Checksum(data[:4], Initial)
	split := Checksum(data[4:], partial)

	if whole != split {
		t.Errorf("split checksum = %#04x, whole = %#04x", split, whole)
	}
}

func TestChecksum_VerifiesToZero(t *testing.T) {
	payload := []byte{0x45, 0x00, 0x00, 0x1c, 0x8a, 0x2b}

	csum := Checksum(payload, Initial)

	// A region followed by its own checksum sums to zero.
	full := make([]byte, len(payload)+2)
	copy(full, payload)
	binary.BigEndian.PutUint16(full[len(payload):], csum)

	if got := Checksum(full, Initial); got != 0 {
		t.Errorf("Checksum over data+checksum = %#04x, want 0", got)
	}
}

func TestChecksum_SeedVerification(t *testing.T) {
	// Compute over a payload starting from a pseudo-header seed, then
	// verify from the same seed, the way the receive path does.
	pseudo := []byte{10, 0, 0, 1, 10, 0, 0, 2, 0, 17, 0, 12}
	payload := []byte{0x00, 0x07, 0x00, 0x09, 0x00, 0x0c, 0x00, 0x00, 'P', 'I', 'N', 'G'}

	seed := Checksum(pseudo, Initial)
	csum := Checksum(payload, seed)

	full := make([]byte, len(payload))
	copy(full, payload)
	binary.BigEndian.PutUint16(full[6:], csum)

	if got := Checksum(full, seed); got != 0 {
		t.Errorf("verification from seed = %#04x, want 0", got)
	}
}
