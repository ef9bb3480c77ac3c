package hackrf

import (
	"errors"
	"testing"
)

func TestReadBoardID(t *testing.T) {
	ft := newFakeTransport()
	ft.replies[reqBoardIDRead] = []byte{BoardHackRFOne}
	dev := New(ft)

	id, err := dev.ReadBoardID()
	if err != nil {
		t.Fatalf("ReadBoardID: %v", err)
	}
	if id != BoardHackRFOne {
		t.Errorf("board id = %d, want %d", id, BoardHackRFOne)
	}
	if name := BoardName(id); name != "HackRF One" {
		t.Errorf("board name = %q, want %q", name, "HackRF One")
	}
}

func TestReadBoardIDShortResponse(t *testing.T) {
	ft := newFakeTransport()
	dev := New(ft)

	_, err := dev.ReadBoardID()

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v (%T), want *ProtocolError", err, err)
	}
}

func TestReadVersionTrimsPadding(t *testing.T) {
	ft := newFakeTransport()
	ft.replies[reqVersionStringRead] = []byte("2024.02.1\x00\x00\x00")
	dev := New(ft)

	version, err := dev.ReadVersion()
	if err != nil {
		t.Fatalf("ReadVersion: %v", err)
	}
	if version != "2024.02.1" {
		t.Errorf("version = %q, want %q", version, "2024.02.1")
	}
}

func TestReadBoardSerial(t *testing.T) {
	ft := newFakeTransport()
	ft.replies[reqBoardPartIDSerialNoRead] = []byte{
		0x01, 0x00, 0x00, 0x00, // part id 0
		0x02, 0x00, 0x00, 0x00, // part id 1
		0x00, 0x00, 0x00, 0x00, // serial 0
		0x00, 0x00, 0x00, 0x00, // serial 1
		0xef, 0xbe, 0xad, 0xde, // serial 2
		0x78, 0x56, 0x34, 0x12, // serial 3
	}
	dev := New(ft)

	serial, err := dev.ReadBoardSerial()
	if err != nil {
		t.Fatalf("ReadBoardSerial: %v", err)
	}
	if serial.PartID != [2]uint32{1, 2} {
		t.Errorf("part id = %v, want [1 2]", serial.PartID)
	}
	if got, want := serial.String(), "0000000000000000deadbeef12345678"; got != want {
		t.Errorf("serial = %q, want %q", got, want)
	}
}

func TestTransportErrorsPropagateUnchanged(t *testing.T) {
	ft := newFakeTransport()
	ft.readErr = ErrDeviceGone
	dev := New(ft)

	if _, err := dev.ReadBoardID(); !errors.Is(err, ErrDeviceGone) {
		t.Errorf("error = %v, want ErrDeviceGone", err)
	}
	if n := ft.callCount(); n != 0 {
		// One attempt, no retries: the fake counts successful recordings
		// only, so nothing must have been recorded after the failure.
		t.Errorf("transfers recorded after failure = %d, want 0", n)
	}
}

func TestResetRequiresFirmware(t *testing.T) {
	ft := newFakeTransport()
	ft.version = 0x0101
	dev := New(ft)

	err := dev.Reset()

	var versionErr *VersionError
	if !errors.As(err, &versionErr) {
		t.Fatalf("error = %v (%T), want *VersionError", err, err)
	}
	if n := ft.callCount(); n != 0 {
		t.Errorf("gated operation issued %d transfers, want none", n)
	}
}

func TestResetClearsConfiguration(t *testing.T) {
	ft := newFakeTransport()
	dev := New(ft)

	if err := configureForReceive(dev); err != nil {
		t.Fatalf("configuring: %v", err)
	}
	if err := dev.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	// The device rebooted; the old configuration no longer counts.
	var stateErr *StateError
	if err := dev.SetTransceiverMode(ModeReceive); !errors.As(err, &stateErr) {
		t.Errorf("receive after reset: error = %v, want *StateError", err)
	}
}

func TestClkoutRequiresFirmware(t *testing.T) {
	ft := newFakeTransport()
	ft.version = 0x0102
	dev := New(ft)

	var versionErr *VersionError
	if err := dev.SetClkoutEnable(true); !errors.As(err, &versionErr) {
		t.Fatalf("error = %v, want *VersionError", err)
	}

	ft.version = 0x0103
	if err := dev.SetClkoutEnable(true); err != nil {
		t.Fatalf("SetClkoutEnable on 1.0.3: %v", err)
	}
}

func TestSampleRateSetsFilterAutomatically(t *testing.T) {
	ft := newFakeTransport()
	dev := New(ft)

	if err := dev.SetSampleRate(20_000_000); err != nil {
		t.Fatalf("SetSampleRate: %v", err)
	}

	calls := ft.callsFor(reqBasebandFilterBandwidthSet)
	if len(calls) != 1 {
		t.Fatalf("filter transfers = %d, want 1", len(calls))
	}

	// 75% of 20 MHz = 15 MHz = 0x00E4E1C0.
	if calls[0].value != 0xE1C0 || calls[0].index != 0x00E4 {
		t.Errorf("filter value/index = 0x%04x/0x%04x, want 0xE1C0/0x00E4", calls[0].value, calls[0].index)
	}
}
