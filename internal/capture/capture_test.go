package capture

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "capture.sqlite"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := &Session{
		Serial:     "0000000000000000457863c82f3359cd",
		BoardID:    2,
		Firmware:   "2024.02.1",
		CenterHz:   915_000_000,
		SampleHz:   10_000_000,
		FilterHz:   7_500_000,
		LNAGain:    16,
		VGAGain:    20,
		AmpEnabled: true,
	}

	id, err := store.CreateSession(ctx, want)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := store.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session(%d): %v", id, err)
	}

	if got.Serial != want.Serial || got.BoardID != want.BoardID || got.Firmware != want.Firmware {
		t.Errorf("device fields = %q/%d/%q, want %q/%d/%q",
			got.Serial, got.BoardID, got.Firmware, want.Serial, want.BoardID, want.Firmware)
	}
	if got.CenterHz != want.CenterHz || got.SampleHz != want.SampleHz || got.FilterHz != want.FilterHz {
		t.Errorf("radio fields = %d/%d/%d, want %d/%d/%d",
			got.CenterHz, got.SampleHz, got.FilterHz, want.CenterHz, want.SampleHz, want.FilterHz)
	}
	if got.LNAGain != want.LNAGain || got.VGAGain != want.VGAGain || !got.AmpEnabled {
		t.Errorf("gain fields = %d/%d/%v, want %d/%d/true",
			got.LNAGain, got.VGAGain, got.AmpEnabled, want.LNAGain, want.VGAGain)
	}
	if got.StartTime.IsZero() {
		t.Error("start time was not recorded")
	}
}

func TestSessionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Session(context.Background(), 42)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestChunksPreserveOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx, &Session{Serial: "test"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	batches := [][]Chunk{
		{{Seq: 0, Data: []byte{0x01, 0x02}}, {Seq: 1, Data: []byte{0x03, 0x04}}},
		{{Seq: 2, Data: []byte{0x05, 0x06}}},
	}
	for _, batch := range batches {
		if err := store.AppendChunks(ctx, id, batch); err != nil {
			t.Fatalf("AppendChunks: %v", err)
		}
	}

	it, err := store.Chunks(ctx, id)
	if err != nil {
		t.Fatalf("Chunks: %v", err)
	}
	defer it.Close()

	var got []Chunk
	for it.Next() {
		got = append(got, it.Chunk())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterating: %v", err)
	}

	want := []Chunk{
		{Seq: 0, Data: []byte{0x01, 0x02}},
		{Seq: 1, Data: []byte{0x03, 0x04}},
		{Seq: 2, Data: []byte{0x05, 0x06}},
	}
	if len(got) != len(want) {
		t.Fatalf("chunks = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Seq != want[i].Seq || !bytes.Equal(got[i].Data, want[i].Data) {
			t.Errorf("chunk %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAppendChunksEmptyBatch(t *testing.T) {
	store := newTestStore(t)

	if err := store.AppendChunks(context.Background(), 1, nil); err != nil {
		t.Errorf("AppendChunks(nil) = %v, want nil", err)
	}
}
