package hackrf

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// DefaultBlockSize is the bulk read size in bytes: one transfer unit of the
// sample endpoint. Two bytes per sample, so a block carries 64Ki samples.
const DefaultBlockSize = 128 * 1024

// StopCause tags how a stream ended. Both causes are normal terminations, not
// errors: a caller-requested stop and a device disconnect frequently overlap
// in time and neither deserves a fault.
type StopCause int

const (
	// CauseNone means the stream has not terminated cleanly; if the sample
	// channel is closed, Err reports why.
	CauseNone StopCause = iota

	// CauseStopped means the caller requested the stop (Stop call, context
	// cancellation, or the transceiver leaving receive mode).
	CauseStopped

	// CauseDisconnected means the device left the bus while streaming.
	CauseDisconnected
)

func (c StopCause) String() string {
	switch c {
	case CauseStopped:
		return "stopped"
	case CauseDisconnected:
		return "disconnected"
	default:
		return "none"
	}
}

// WithBlockSize sets the bulk read size in bytes. The size is forced even;
// values below one sample pair fall back to the default.
func WithBlockSize(n int) func(*Stream) {
	return func(s *Stream) {
		n -= n % 2
		if n >= 2 {
			s.buf = make([]byte, n)
		}
	}
}

// Stream is a running sample stream. It owns a dedicated goroutine that
// repeatedly bulk-reads into a reused buffer, decodes the I,Q byte pairs in
// delivery order and sends each batch on the sample channel.
//
// Stopping is cooperative: Stop (idempotent, safe from any goroutine) and
// context cancellation are observed between bulk reads, never mid-transfer.
// After the sample channel closes, Cause reports whether the stream stopped
// on request or because the device disconnected; any other termination is an
// error available from Err. The stream never switches the transceiver back to
// off — that is the caller's cleanup.
type Stream struct {
	d      *Device
	logger *slog.Logger
	buf    []byte
	out    chan []IQ

	stopOnce sync.Once
	stopCh   chan struct{}

	mu    sync.Mutex
	cause StopCause
	err   error
}

// StartReceive starts streaming samples. The transceiver must already be in
// receive mode and only one stream may run on a handle at a time; violating
// either is a contract error, reported before any transfer is issued.
func (d *Device) StartReceive(ctx context.Context, options ...func(*Stream)) (*Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mode != ModeReceive {
		return nil, &StateError{Mode: d.mode, Reason: "starting a sample stream requires receive mode"}
	}
	if d.streaming {
		return nil, &StateError{Mode: d.mode, Reason: "a sample stream is already running"}
	}

	s := &Stream{
		d:      d,
		logger: d.logger,
		buf:    make([]byte, DefaultBlockSize),
		out:    make(chan []IQ),
		stopCh: make(chan struct{}),
	}
	for _, option := range options {
		option(s)
	}

	d.streaming = true
	go s.run(ctx)
	return s, nil
}

// Samples is the stream's output. Batches arrive in device-delivery order,
// each sized to one bulk transfer. The channel closes when the stream
// terminates; inspect Cause and Err afterwards.
func (s *Stream) Samples() <-chan []IQ {
	return s.out
}

// Stop requests a cooperative stop. It returns immediately; the stream
// terminates at the next read boundary. Calling Stop more than once, or
// concurrently with a device disconnect, is safe.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Cause reports how the stream ended. Valid after the sample channel closes.
func (s *Stream) Cause() StopCause {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// Err returns the fault that ended the stream, or nil when the termination
// was a requested stop or a disconnect. Valid after the sample channel
// closes.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.out)
	defer s.d.endStream()

	s.logger.Info("sample stream started", slog.Int("blockSize", len(s.buf)))

	for {
		if s.stopRequested(ctx) {
			s.finish(CauseStopped, nil)
			return
		}
		if s.d.TransceiverMode() != ModeReceive {
			s.finish(CauseStopped, nil)
			return
		}

		n, err := s.d.t.BulkIn(s.buf)
		if err != nil {
			// Caller-requested termination is checked first: a stop
			// racing a disconnect must end the stream cleanly no
			// matter which the transport reported.
			switch {
			case s.stopRequested(ctx):
				s.finish(CauseStopped, nil)
			case errors.Is(err, ErrDeviceGone):
				s.finish(CauseDisconnected, nil)
			default:
				s.finish(CauseNone, err)
			}
			return
		}

		n -= n % 2
		if n == 0 {
			continue
		}

		batch := DecodeIQ(s.buf[:n])
		select {
		case s.out <- batch:
		case <-s.stopCh:
			s.finish(CauseStopped, nil)
			return
		case <-ctx.Done():
			s.finish(CauseStopped, nil)
			return
		}
	}
}

func (s *Stream) stopRequested(ctx context.Context) bool {
	select {
	case <-s.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Stream) finish(cause StopCause, err error) {
	s.mu.Lock()
	s.cause, s.err = cause, err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("sample stream failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("sample stream ended", slog.String("cause", cause.String()))
}
