package hackrf

// GainStage identifies one of the device's amplifier stages. Each stage has a
// fixed range and step size set by the hardware.
type GainStage int

const (
	// GainLNA is the receive low-noise (IF) amplifier: 0-40 dB in 8 dB steps.
	GainLNA GainStage = iota

	// GainVGA is the receive variable-gain (baseband) amplifier: 0-62 dB in
	// 2 dB steps.
	GainVGA

	// GainTXVGA is the transmit variable-gain amplifier: 0-47 dB in 1 dB
	// steps.
	GainTXVGA
)

func (s GainStage) String() string {
	switch s {
	case GainLNA:
		return "LNA"
	case GainVGA:
		return "VGA"
	case GainTXVGA:
		return "TXVGA"
	default:
		return "unknown"
	}
}

type gainRange struct {
	min, max, step int
	request        Request
}

var gainRanges = map[GainStage]gainRange{
	GainLNA:   {min: 0, max: 40, step: 8, request: reqSetLNAGain},
	GainVGA:   {min: 0, max: 62, step: 2, request: reqSetVGAGain},
	GainTXVGA: {min: 0, max: 47, step: 1, request: reqSetTXVGAGain},
}

// validateGain checks a requested gain against its stage's grid. Off-grid and
// out-of-range values are rejected outright rather than rounded: a silently
// adjusted gain is worse than a failed call.
func validateGain(stage GainStage, db int) error {
	r, ok := gainRanges[stage]
	if !ok {
		return &GainError{Stage: stage, Requested: db}
	}
	if db < r.min || db > r.max || db%r.step != 0 {
		return &GainError{Stage: stage, Requested: db, Min: r.min, Max: r.max, Step: r.step}
	}
	return nil
}

// gainCommand encodes a validated gain. The gain travels in the index field
// and the value field stays zero; the device answers with a one-byte ack.
// Putting the gain in the value field configures nothing and the device
// reports success, so the placement here is load-bearing.
func gainCommand(stage GainStage, db int) Command {
	return Command{
		Request:  gainRanges[stage].request,
		Value:    0,
		Index:    uint16(db),
		ReplyLen: 1,
	}
}
