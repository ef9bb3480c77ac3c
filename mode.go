package hackrf

// TransceiverMode is the device's operating mode. The wire encoding matches
// the firmware's numbering.
type TransceiverMode uint16

const (
	// ModeOff is the idle mode. Every handle starts here.
	ModeOff TransceiverMode = 0

	// ModeReceive streams IQ samples from the bulk-in endpoint.
	ModeReceive TransceiverMode = 1

	// ModeTransmit accepts IQ samples on the bulk-out endpoint.
	ModeTransmit TransceiverMode = 2
)

func (m TransceiverMode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeReceive:
		return "receive"
	case ModeTransmit:
		return "transmit"
	default:
		return "unknown"
	}
}

// checkTransition validates a mode change against the tracked state. Called
// with d.mu held. Entering an active mode is only defined from off, and only
// after the sample rate and baseband filter have been configured on this
// handle: the firmware accepts a mode switch on a misconfigured device and
// then streams garbage, so the precondition is enforced here instead.
func (d *Device) checkTransition(to TransceiverMode) error {
	switch to {
	case ModeOff:
		return nil
	case ModeReceive, ModeTransmit:
		if d.mode != ModeOff {
			return &StateError{Mode: d.mode, Reason: "transition to " + to.String() + " is only defined from off"}
		}
		if !d.rateConfigured || !d.filterConfigured {
			return &StateError{Mode: d.mode, Reason: "sample rate and filter bandwidth must be configured before entering " + to.String()}
		}
		return nil
	default:
		return &StateError{Mode: d.mode, Reason: "unsupported transceiver mode"}
	}
}
