package hackrf

import (
	"math"
	"testing"
)

func TestDecodeIQ(t *testing.T) {
	raw := []byte{0x01, 0xFF, 0x80, 0x7F}

	got := DecodeIQ(raw)
	want := []IQ{{I: 1, Q: -1}, {I: -128, Q: 127}}

	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecodeIQIgnoresTrailingByte(t *testing.T) {
	got := DecodeIQ([]byte{0x01, 0x02, 0x03})
	if len(got) != 1 {
		t.Fatalf("decoded %d samples, want 1", len(got))
	}
	if got[0] != (IQ{I: 1, Q: 2}) {
		t.Errorf("sample = %+v, want {1 2}", got[0])
	}
}

func TestComplex64SignAndMonotonicity(t *testing.T) {
	prev := float32(math.Inf(-1))
	for raw := -128; raw <= 127; raw++ {
		c := IQ{I: int8(raw)}.Complex64()
		i := real(c)

		if raw < 0 && i >= 0 || raw > 0 && i <= 0 || raw == 0 && i != 0 {
			t.Errorf("raw %d maps to %f, sign mismatch", raw, i)
		}
		if i <= prev {
			t.Errorf("raw %d maps to %f, not monotonic (prev %f)", raw, i, prev)
		}
		if i < -1 || i >= 1 {
			t.Errorf("raw %d maps to %f, outside [-1, 1)", raw, i)
		}
		prev = i
	}
}

func TestDecodeComplex64Order(t *testing.T) {
	raw := []byte{0x40, 0xC0, 0x00, 0x20} // (64,-64), (0,32)

	got := DecodeComplex64(raw)
	if len(got) != 2 {
		t.Fatalf("decoded %d samples, want 2", len(got))
	}
	if got[0] != complex(float32(0.5), float32(-0.5)) {
		t.Errorf("sample 0 = %v, want (0.5,-0.5)", got[0])
	}
	if got[1] != complex(float32(0), float32(0.25)) {
		t.Errorf("sample 1 = %v, want (0,0.25)", got[1])
	}
}

func TestAppendBytesRoundTrip(t *testing.T) {
	raw := []byte{0x01, 0xFF, 0x80, 0x7F, 0x00, 0x00}

	out := AppendBytes(nil, DecodeIQ(raw))
	if string(out) != string(raw) {
		t.Errorf("round trip = %x, want %x", out, raw)
	}
}
