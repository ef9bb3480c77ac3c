package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/hackrf"
	"github.com/roman-kulish/hackrf/internal/capture"
	"github.com/roman-kulish/hackrf/usb"
)

const (
	// chunkBatchSize is how many stream batches are stored per database
	// transaction.
	chunkBatchSize = 64

	progressInterval = 5 * time.Second
)

// Rx configures the device from config, streams IQ samples and records them
// until the context is cancelled or the device goes away.
func Rx(ctx context.Context, config *RxConfig, logger *slog.Logger) error {
	if err := config.Validate(); err != nil {
		return err
	}

	transport, err := usb.Open(usb.WithSerial(config.Serial))
	if err != nil {
		return fmt.Errorf("opening device: %w", err)
	}
	defer transport.Close()

	dev := hackrf.New(transport, hackrf.WithLogger(logger))

	if err = configureDevice(dev, config); err != nil {
		return err
	}

	session, err := describeSession(dev, transport, config)
	if err != nil {
		return err
	}

	sink, err := newSink(ctx, &config.Output, session)
	if err != nil {
		return err
	}
	defer sink.Close()

	if err = dev.SetTransceiverMode(hackrf.ModeReceive); err != nil {
		return fmt.Errorf("entering receive mode: %w", err)
	}
	// Best effort; a dead device cannot be stopped anyway.
	defer func() {
		if err := dev.SetTransceiverMode(hackrf.ModeOff); err != nil {
			logger.Warn("stopping transceiver", slog.String("error", err.Error()))
		}
	}()

	stream, err := dev.StartReceive(ctx)
	if err != nil {
		return fmt.Errorf("starting sample stream: %w", err)
	}

	logger.Info("receiving",
		slog.String("frequency", humanizeHz(float64(config.Frequency))),
		slog.String("sampleRate", humanizeHz(float64(config.SampleRate))))

	var total uint64
	lastReport := time.Now()
	for batch := range stream.Samples() {
		if err = sink.Write(ctx, batch); err != nil {
			stream.Stop()
			for range stream.Samples() {
			}
			return fmt.Errorf("writing samples: %w", err)
		}

		total += uint64(len(batch) * 2)
		if time.Since(lastReport) >= progressInterval {
			logger.Info("captured", slog.String("bytes", humanize.Bytes(total)))
			lastReport = time.Now()
		}
	}

	if err = sink.Flush(ctx); err != nil {
		return fmt.Errorf("flushing capture: %w", err)
	}
	if err = stream.Err(); err != nil {
		return fmt.Errorf("sample stream: %w", err)
	}

	logger.Info("capture finished",
		slog.String("cause", stream.Cause().String()),
		slog.String("bytes", humanize.Bytes(total)))
	return nil
}

func configureDevice(dev *hackrf.Device, config *RxConfig) error {
	if err := dev.Configure(config.Frequency, config.SampleRate, config.FilterBandwidth); err != nil {
		return err
	}
	if config.LNAGain != nil {
		if err := dev.SetGain(hackrf.GainLNA, *config.LNAGain); err != nil {
			return err
		}
	}
	if config.VGAGain != nil {
		if err := dev.SetGain(hackrf.GainVGA, *config.VGAGain); err != nil {
			return err
		}
	}
	if config.EnableAmp {
		if err := dev.SetAmpEnable(true); err != nil {
			return fmt.Errorf("enabling amplifier: %w", err)
		}
	}
	if config.AntennaPower {
		if err := dev.SetAntennaEnable(true); err != nil {
			return fmt.Errorf("enabling antenna power: %w", err)
		}
	}
	return nil
}

func describeSession(dev *hackrf.Device, transport *usb.Transport, config *RxConfig) (*capture.Session, error) {
	boardID, err := dev.ReadBoardID()
	if err != nil {
		return nil, fmt.Errorf("reading board id: %w", err)
	}
	firmware, err := dev.ReadVersion()
	if err != nil {
		return nil, fmt.Errorf("reading firmware version: %w", err)
	}
	serial, err := transport.SerialNumber()
	if err != nil {
		return nil, fmt.Errorf("reading serial number: %w", err)
	}

	session := capture.Session{
		Serial:     serial,
		BoardID:    int(boardID),
		Firmware:   firmware,
		CenterHz:   config.Frequency,
		SampleHz:   config.SampleRate,
		FilterHz:   config.FilterBandwidth,
		AmpEnabled: config.EnableAmp,
	}
	if config.LNAGain != nil {
		session.LNAGain = *config.LNAGain
	}
	if config.VGAGain != nil {
		session.VGAGain = *config.VGAGain
	}
	return &session, nil
}

// sink fans captured batches out to the configured destinations.
type sink struct {
	store     *capture.Store
	sessionID int64
	pending   []capture.Chunk
	seq       int

	raw *os.File
}

func newSink(ctx context.Context, config *OutputConfig, session *capture.Session) (*sink, error) {
	var s sink

	if config.Database != "" {
		store, err := capture.New(config.Database)
		if err != nil {
			return nil, fmt.Errorf("opening capture database: %w", err)
		}
		id, err := store.CreateSession(ctx, session)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("creating capture session: %w", err)
		}
		s.store, s.sessionID = store, id
	}

	if config.RawFile != "" {
		f, err := os.Create(config.RawFile)
		if err != nil {
			if s.store != nil {
				_ = s.store.Close()
			}
			return nil, fmt.Errorf("creating raw file: %w", err)
		}
		s.raw = f
	}

	return &s, nil
}

func (s *sink) Write(ctx context.Context, batch []hackrf.IQ) error {
	data := hackrf.AppendBytes(nil, batch)

	if s.raw != nil {
		if _, err := s.raw.Write(data); err != nil {
			return err
		}
	}

	if s.store != nil {
		s.pending = append(s.pending, capture.Chunk{Seq: s.seq, Data: data})
		s.seq++
		if len(s.pending) >= chunkBatchSize {
			return s.Flush(ctx)
		}
	}
	return nil
}

func (s *sink) Flush(ctx context.Context) error {
	if s.store == nil || len(s.pending) == 0 {
		return nil
	}
	// A cancelled run context must not lose the tail of the capture.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	err := s.store.AppendChunks(ctx, s.sessionID, s.pending)
	s.pending = s.pending[:0]
	return err
}

func (s *sink) Close() error {
	var errs []error
	if s.raw != nil {
		errs = append(errs, s.raw.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

func humanizeHz(hz float64) string {
	value, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%.4g %sHz", value, suffix)
}
