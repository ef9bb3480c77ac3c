package hackrf

import (
	"errors"
	"testing"
)

func TestSetGainEncodesIndexField(t *testing.T) {
	stages := []struct {
		stage   GainStage
		request Request
		step    int
		max     int
	}{
		{GainLNA, reqSetLNAGain, 8, 40},
		{GainVGA, reqSetVGAGain, 2, 62},
		{GainTXVGA, reqSetTXVGAGain, 1, 47},
	}

	for _, s := range stages {
		ft := newFakeTransport()
		ft.replies[s.request] = []byte{1}
		dev := New(ft)

		for db := 0; db <= s.max; db += s.step {
			if err := dev.SetGain(s.stage, db); err != nil {
				t.Fatalf("SetGain(%s, %d): %v", s.stage, db, err)
			}

			call := ft.lastCall()
			if !call.in {
				t.Errorf("SetGain(%s, %d) issued an OUT transfer, want IN", s.stage, db)
			}
			if call.request != s.request {
				t.Errorf("SetGain(%s, %d) request = %d, want %d", s.stage, db, call.request, s.request)
			}
			if call.index != uint16(db) {
				t.Errorf("SetGain(%s, %d) index = %d, want %d", s.stage, db, call.index, db)
			}
			if call.value != 0 {
				// The gain belongs in the index field; a non-zero value
				// field means the encoding regressed to the swapped form.
				t.Errorf("SetGain(%s, %d) value = %d, want 0", s.stage, db, call.value)
			}
		}
	}
}

func TestSetGainRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		stage GainStage
		db    int
	}{
		{GainLNA, -8},
		{GainLNA, 48},
		{GainLNA, 3},  // off the 8 dB grid
		{GainLNA, 41}, // off-grid and out of range
		{GainVGA, -2},
		{GainVGA, 64},
		{GainVGA, 1}, // off the 2 dB grid
		{GainTXVGA, -1},
		{GainTXVGA, 48},
	}

	for _, tt := range tests {
		ft := newFakeTransport()
		dev := New(ft)

		err := dev.SetGain(tt.stage, tt.db)
		if err == nil {
			t.Errorf("SetGain(%s, %d) succeeded, want error", tt.stage, tt.db)
			continue
		}

		var gainErr *GainError
		if !errors.As(err, &gainErr) {
			t.Errorf("SetGain(%s, %d) error = %T, want *GainError", tt.stage, tt.db, err)
		}
		if n := ft.callCount(); n != 0 {
			t.Errorf("SetGain(%s, %d) issued %d transfers, want none", tt.stage, tt.db, n)
		}
	}
}

func TestSetGainDeviceRejection(t *testing.T) {
	ft := newFakeTransport()
	ft.replies[reqSetLNAGain] = []byte{0} // device NAK
	dev := New(ft)

	err := dev.SetGain(GainLNA, 16)

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v (%T), want *ProtocolError", err, err)
	}
}

func TestSetGainShortResponse(t *testing.T) {
	ft := newFakeTransport()
	ft.replies[reqSetVGAGain] = nil // zero-byte answer
	dev := New(ft)

	err := dev.SetGain(GainVGA, 20)

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v (%T), want *ProtocolError", err, err)
	}
	if protoErr.Expected != 1 || protoErr.Actual != 0 {
		t.Errorf("expected/actual = %d/%d, want 1/0", protoErr.Expected, protoErr.Actual)
	}
}
