package hackrf

// IQ is one complex sample exactly as the device delivers it: an in-phase and
// a quadrature component, each a signed byte. The I byte precedes the Q byte
// on the wire.
type IQ struct {
	I, Q int8
}

// Scale maps one signed-8-bit component step onto the normalized float range,
// so the full int8 domain lands in [-1.0, 1.0).
const Scale = 1.0 / 128

// Complex64 returns the sample normalized onto the unit range. The mapping is
// a constant linear scale: sign is preserved and magnitude is monotonic in
// the raw value.
func (s IQ) Complex64() complex64 {
	return complex(float32(s.I)*Scale, float32(s.Q)*Scale)
}

// DecodeIQ decodes consecutive I,Q byte pairs into samples, preserving
// delivery order. A trailing unpaired byte is ignored.
func DecodeIQ(buf []byte) []IQ {
	out := make([]IQ, 0, len(buf)/2)
	for i := 0; i+1 < len(buf); i += 2 {
		out = append(out, IQ{I: int8(buf[i]), Q: int8(buf[i+1])})
	}
	return out
}

// DecodeComplex64 decodes consecutive I,Q byte pairs into normalized complex
// samples, preserving delivery order. A trailing unpaired byte is ignored.
func DecodeComplex64(buf []byte) []complex64 {
	out := make([]complex64, 0, len(buf)/2)
	for i := 0; i+1 < len(buf); i += 2 {
		out = append(out, IQ{I: int8(buf[i]), Q: int8(buf[i+1])}.Complex64())
	}
	return out
}

// ToComplex64 converts already-decoded samples to the normalized form.
func ToComplex64(in []IQ) []complex64 {
	out := make([]complex64, len(in))
	for i, s := range in {
		out[i] = s.Complex64()
	}
	return out
}

// AppendBytes re-encodes samples into the device's wire format, appending to
// dst. Useful for writing captures in the same iq8 layout they arrived in.
func AppendBytes(dst []byte, in []IQ) []byte {
	for _, s := range in {
		dst = append(dst, byte(s.I), byte(s.Q))
	}
	return dst
}
