// Package hackrf drives a HackRF One software-defined radio over its vendor
// USB protocol: configuration and gain control via control transfers, and IQ
// sample streaming via bulk reads from the sample endpoint.
//
// The package does not talk to the bus itself; it runs on top of a Transport
// (see the usb subpackage for the gousb-backed one). All operations return
// typed errors and none of them terminate the process on a device-side
// condition.
package hackrf

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const versionStringMaxLen = 16

// Board identifiers returned by ReadBoardID.
const (
	BoardJellybean  = 0
	BoardJawbreaker = 1
	BoardHackRFOne  = 2
	BoardRad1o      = 3
)

var boardNames = map[uint8]string{
	BoardJellybean:  "Jellybean",
	BoardJawbreaker: "Jawbreaker",
	BoardHackRFOne:  "HackRF One",
	BoardRad1o:      "rad1o",
}

// BoardName returns the human-readable name for a board identifier.
func BoardName(id uint8) string {
	if name, ok := boardNames[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown board (0x%02x)", id)
}

// Firmware API versions below which an operation is not available.
var (
	minVersionReset  = Version{Major: 1, Minor: 0, SubMinor: 2}
	minVersionClkout = Version{Major: 1, Minor: 0, SubMinor: 3}
)

// WithLogger sets the logger used for stream lifecycle events. The default
// logger discards everything.
func WithLogger(logger *slog.Logger) func(*Device) {
	return func(d *Device) {
		d.logger = logger
	}
}

// Device is an open HackRF One handle. It owns the protocol state: the
// tracked transceiver mode and the configured-at-least-once flags that gate
// entering an active mode. A Device is safe for use by a configuring
// goroutine concurrently with its sample stream; configuration calls
// themselves are expected from one controller at a time.
type Device struct {
	t      Transport
	logger *slog.Logger

	mu               sync.Mutex
	mode             TransceiverMode
	rateConfigured   bool
	filterConfigured bool
	streaming        bool
}

// New wraps an open transport in a driver handle. The handle starts in mode
// off with no configuration recorded, regardless of what the device was doing
// before.
func New(t Transport, options ...func(*Device)) *Device {
	d := Device{
		t:      t,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		mode:   ModeOff,
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// Close stops the transceiver on a best-effort basis and releases the
// transport. A failed mode-set does not block the close.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.mode != ModeOff {
		if err := d.t.ControlOut(reqSetTransceiverMode, uint16(ModeOff), 0, nil); err != nil {
			d.logger.Warn("stopping transceiver on close", slog.String("error", err.Error()))
		}
		d.mode = ModeOff
	}
	d.mu.Unlock()

	return d.t.Close()
}

// write issues one OUT control transfer. No retries: the protocol is not
// blindly replay-safe, so retry policy stays with the caller.
func (d *Device) write(cmd Command) error {
	return d.t.ControlOut(cmd.Request, cmd.Value, cmd.Index, cmd.Data)
}

// read issues one IN control transfer and checks the response length against
// the command's fixed layout.
func (d *Device) read(op string, cmd Command) ([]byte, error) {
	buf := make([]byte, cmd.ReplyLen)
	n, err := d.t.ControlIn(cmd.Request, cmd.Value, cmd.Index, buf)
	if err != nil {
		return nil, err
	}
	if n != cmd.ReplyLen {
		return nil, &ProtocolError{Op: op, Expected: cmd.ReplyLen, Actual: n}
	}
	return buf, nil
}

// SetFreq tunes the center frequency in Hz.
func (d *Device) SetFreq(hz uint64) error {
	return d.write(setFreqCommand(hz))
}

// SetSampleRate sets the sample rate in Hz and, matching the stock firmware
// tooling, selects a baseband filter bandwidth of 75% of the rate. Call
// SetBasebandFilterBandwidth afterwards to override the automatic choice.
func (d *Device) SetSampleRate(hz uint32) error {
	return d.SetSampleRateManual(hz, 1)
}

// SetSampleRateManual sets the sample rate as an explicit frequency/divider
// pair. The effective rate is hz/div.
func (d *Device) SetSampleRateManual(hz, div uint32) error {
	if err := d.write(sampleRateCommand(hz, div)); err != nil {
		return err
	}

	d.mu.Lock()
	d.rateConfigured = true
	d.mu.Unlock()

	return d.SetBasebandFilterBandwidth(uint32(0.75 * float64(hz) / float64(div)))
}

// SetBasebandFilterBandwidth sets the baseband filter bandwidth in Hz.
func (d *Device) SetBasebandFilterBandwidth(hz uint32) error {
	if err := d.write(filterBandwidthCommand(hz)); err != nil {
		return err
	}

	d.mu.Lock()
	d.filterConfigured = true
	d.mu.Unlock()

	return nil
}

// Configure applies the standard receive configuration in one call:
// frequency, sample rate (with its automatic filter selection) and, when
// filterHz is non-zero, an explicit filter bandwidth override. The transfers
// are issued in that order and the first failure stops the sequence.
func (d *Device) Configure(freqHz uint64, sampleHz, filterHz uint32) error {
	if err := d.SetFreq(freqHz); err != nil {
		return fmt.Errorf("setting frequency: %w", err)
	}
	if err := d.SetSampleRate(sampleHz); err != nil {
		return fmt.Errorf("setting sample rate: %w", err)
	}
	if filterHz != 0 {
		if err := d.SetBasebandFilterBandwidth(filterHz); err != nil {
			return fmt.Errorf("setting filter bandwidth: %w", err)
		}
	}
	return nil
}

// SetGain sets the gain of one amplifier stage. The requested value must lie
// on the stage's step grid within its range; anything else is rejected before
// a transfer is issued. The device acknowledges the setting with a single
// status byte.
func (d *Device) SetGain(stage GainStage, db int) error {
	if err := validateGain(stage, db); err != nil {
		return err
	}

	op := "set " + strings.ToLower(stage.String()) + " gain"
	buf, err := d.read(op, gainCommand(stage, db))
	if err != nil {
		return err
	}
	if buf[0] == 0 {
		return &ProtocolError{Op: op, Msg: fmt.Sprintf("device rejected %d dB", db)}
	}
	return nil
}

// SetLNAGain sets the receive low-noise amplifier gain (0-40 dB, 8 dB steps).
func (d *Device) SetLNAGain(db int) error { return d.SetGain(GainLNA, db) }

// SetVGAGain sets the receive baseband amplifier gain (0-62 dB, 2 dB steps).
func (d *Device) SetVGAGain(db int) error { return d.SetGain(GainVGA, db) }

// SetTXVGAGain sets the transmit amplifier gain (0-47 dB, 1 dB steps).
func (d *Device) SetTXVGAGain(db int) error { return d.SetGain(GainTXVGA, db) }

// SetAmpEnable switches the front-end RF amplifier (~14 dB) on or off.
func (d *Device) SetAmpEnable(on bool) error {
	return d.write(ampEnableCommand(on))
}

// SetAntennaEnable switches bias-tee power on the antenna port.
func (d *Device) SetAntennaEnable(on bool) error {
	return d.write(antennaEnableCommand(on))
}

// SetClkoutEnable switches the CLKOUT port. Requires firmware API 1.0.3.
func (d *Device) SetClkoutEnable(on bool) error {
	if err := d.checkAPIVersion(minVersionClkout); err != nil {
		return err
	}
	return d.write(clkoutEnableCommand(on))
}

// Reset reboots the device. Requires firmware API 1.0.2. The handle's tracked
// state resets with it: mode off, configuration flags cleared.
func (d *Device) Reset() error {
	if err := d.checkAPIVersion(minVersionReset); err != nil {
		return err
	}
	if err := d.write(resetCommand()); err != nil {
		return err
	}

	d.mu.Lock()
	d.mode = ModeOff
	d.rateConfigured = false
	d.filterConfigured = false
	d.mu.Unlock()

	return nil
}

// ReadBoardID reads the board identifier (BoardHackRFOne for this device).
func (d *Device) ReadBoardID() (uint8, error) {
	buf, err := d.read("read board id", boardIDCommand())
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadVersion reads the firmware version string. The response is at most 16
// bytes; shorter answers are valid.
func (d *Device) ReadVersion() (string, error) {
	buf := make([]byte, versionStringMaxLen)
	cmd := versionStringCommand()
	n, err := d.t.ControlIn(cmd.Request, cmd.Value, cmd.Index, buf)
	if err != nil {
		return "", err
	}
	if n > versionStringMaxLen {
		return "", &ProtocolError{Op: "read version", Expected: versionStringMaxLen, Actual: n}
	}
	return strings.TrimRight(string(buf[:n]), "\x00"), nil
}

// BoardSerial is the factory part identifier and serial number.
type BoardSerial struct {
	PartID [2]uint32
	Serial [4]uint32
}

func (b BoardSerial) String() string {
	return fmt.Sprintf("%08x%08x%08x%08x", b.Serial[0], b.Serial[1], b.Serial[2], b.Serial[3])
}

// ReadBoardSerial reads the part identifier and serial number.
func (d *Device) ReadBoardSerial() (BoardSerial, error) {
	buf, err := d.read("read board serial", boardSerialCommand())
	if err != nil {
		return BoardSerial{}, err
	}

	var b BoardSerial
	for i := range b.PartID {
		b.PartID[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	for i := range b.Serial {
		b.Serial[i] = binary.LittleEndian.Uint32(buf[8+i*4:])
	}
	return b, nil
}

// DeviceVersion returns the firmware API version from the USB descriptor.
func (d *Device) DeviceVersion() Version {
	return VersionFromBCD(d.t.DeviceVersion())
}

func (d *Device) checkAPIVersion(min Version) error {
	if v := d.DeviceVersion(); !v.AtLeast(min) {
		return &VersionError{Device: v, Min: min}
	}
	return nil
}

// SetTransceiverMode requests a mode transition. Entering receive or transmit
// is only permitted from off and only after the sample rate and filter
// bandwidth have been configured on this handle. Switching to off is always
// permitted and is a no-op when already off. A failed transfer leaves the
// tracked mode at its pre-transition value; whether to retry is the caller's
// decision.
func (d *Device) SetTransceiverMode(mode TransceiverMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if mode == ModeOff && d.mode == ModeOff {
		return nil
	}
	if err := d.checkTransition(mode); err != nil {
		return err
	}
	if err := d.write(modeCommand(mode)); err != nil {
		return err
	}

	d.mode = mode
	return nil
}

// TransceiverMode returns the tracked mode. The sample stream polls this
// between reads to decide whether to keep looping.
func (d *Device) TransceiverMode() TransceiverMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *Device) endStream() {
	d.mu.Lock()
	d.streaming = false
	d.mu.Unlock()
}
