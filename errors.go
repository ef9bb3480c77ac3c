package hackrf

import (
	"errors"
	"fmt"
)

// Transport-level conditions. Transport implementations wrap their native
// errors with these sentinels so callers can classify failures with errors.Is
// without knowing which USB backend is underneath.
var (
	// ErrDeviceGone reports that the device is no longer present on the bus.
	ErrDeviceGone = errors.New("hackrf: device disconnected")

	// ErrTimeout reports that a transfer did not complete within the
	// transport's deadline.
	ErrTimeout = errors.New("hackrf: transfer timed out")

	// ErrStall reports a halted endpoint.
	ErrStall = errors.New("hackrf: endpoint stalled")
)

// ProtocolError reports a response that does not match the fixed layout of the
// operation that produced it: wrong length, or content the device should never
// return. It indicates a firmware mismatch or a corrupted transfer and is
// never ignored.
type ProtocolError struct {
	Op       string // operation name, e.g. "read board id"
	Msg      string // set when the content, not the length, is wrong
	Expected int    // expected response length in bytes
	Actual   int    // actual response length in bytes
}

func (e *ProtocolError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("hackrf: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("hackrf: %s: unexpected response length: want %d bytes, got %d", e.Op, e.Expected, e.Actual)
}

// GainError reports a gain request that is outside the stage's range or not on
// its step grid. The request is rejected before any transfer is issued;
// nothing is clamped or rounded on the caller's behalf.
type GainError struct {
	Stage     GainStage
	Requested int
	Min, Max  int
	Step      int
}

func (e *GainError) Error() string {
	if e.Requested < e.Min || e.Requested > e.Max {
		return fmt.Sprintf("hackrf: %s gain must be between %d and %d dB: %d given",
			e.Stage, e.Min, e.Max, e.Requested)
	}
	return fmt.Sprintf("hackrf: %s gain must be a multiple of %d dB: %d given",
		e.Stage, e.Step, e.Requested)
}

// StateError reports a transceiver state machine contract violation: an
// undefined transition, a transition attempted before its required
// configuration, or a stream operation in the wrong mode. No transfer is
// issued and no state changes.
type StateError struct {
	Mode   TransceiverMode // tracked mode at the time of the call
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("hackrf: in mode %s: %s", e.Mode, e.Reason)
}

// VersionError reports an operation that needs newer device firmware than the
// connected board is running.
type VersionError struct {
	Device Version // firmware API version of the connected device
	Min    Version // minimum version the operation needs
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("hackrf: operation requires firmware API %s, device has %s", e.Min, e.Device)
}
