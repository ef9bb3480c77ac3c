package app

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"math"
	"math/cmplx"
	"os"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/roman-kulish/hackrf"
	"github.com/roman-kulish/hackrf/internal/capture"
)

// maxWaterfallRows caps the rendered image height; long captures are
// truncated rather than producing an unworkably tall PNG.
const maxWaterfallRows = 8192

// spectrumData is a rendered-ready waterfall: one row of dB bin powers per
// FFT frame, oldest first, bins ordered from the lowest frequency up.
type spectrumData struct {
	Rows     [][]float64
	MinPower float64
	MaxPower float64

	FrequencyMin float64 // Hz, left edge of the band
	FrequencyMax float64 // Hz, right edge of the band
	Start        time.Time
	Duration     time.Duration
}

// Waterfall reads a recorded session and renders its spectrum over time to a
// PNG heatmap.
func Waterfall(ctx context.Context, config *WaterfallConfig, logger *slog.Logger) error {
	if err := config.Validate(); err != nil {
		return err
	}

	store, err := capture.New(config.Database)
	if err != nil {
		return fmt.Errorf("opening capture database: %w", err)
	}
	defer store.Close()

	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	logger.Info("rendering session",
		slog.Int64("session", session.ID),
		slog.String("frequency", humanizeHz(float64(session.CenterHz))),
		slog.Int("fftSize", config.FFTSize))

	spec, err := computeSpectrum(ctx, store, session, config.FFTSize)
	if err != nil {
		return err
	}
	if len(spec.Rows) == 0 {
		return fmt.Errorf("session %d holds no complete FFT frame", session.ID)
	}

	img, err := renderSpectrum(spec, config.FontPath)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	f, err := os.Create(config.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err = png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}

	logger.Info("waterfall written",
		slog.String("path", config.Output),
		slog.Int("rows", len(spec.Rows)))
	return nil
}

// computeSpectrum streams the session's chunks through an FFT of the given
// size, one frame per row. Chunk boundaries do not align with frames, so
// samples accumulate in a carry buffer between chunks.
func computeSpectrum(ctx context.Context, store *capture.Store, session *capture.Session, fftSize int) (*spectrumData, error) {
	it, err := store.Chunks(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	fft := fourier.NewCmplxFFT(fftSize)
	window := hannWindow(fftSize)

	spec := spectrumData{
		MinPower:     math.Inf(1),
		MaxPower:     math.Inf(-1),
		FrequencyMin: float64(session.CenterHz) - float64(session.SampleHz)/2,
		FrequencyMax: float64(session.CenterHz) + float64(session.SampleHz)/2,
		Start:        session.StartTime,
	}

	frame := make([]complex128, 0, fftSize)
	var total int
	for it.Next() {
		samples := hackrf.DecodeIQ(it.Chunk().Data)
		total += len(samples)

		for _, s := range samples {
			frame = append(frame, complex(float64(s.I)*hackrf.Scale, float64(s.Q)*hackrf.Scale))
			if len(frame) < fftSize {
				continue
			}

			spec.addRow(fft, window, frame)
			frame = frame[:0]
			if len(spec.Rows) >= maxWaterfallRows {
				break
			}
		}
		if len(spec.Rows) >= maxWaterfallRows {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}

	if session.SampleHz > 0 {
		spec.Duration = time.Duration(float64(total) / float64(session.SampleHz) * float64(time.Second))
	}
	return &spec, nil
}

func (s *spectrumData) addRow(fft *fourier.CmplxFFT, window []float64, frame []complex128) {
	for i := range frame {
		frame[i] *= complex(window[i], 0)
	}

	coeffs := fft.Coefficients(nil, frame)
	n := len(coeffs)

	// The transform orders bins DC-first; rotate so that the row runs from
	// the lowest frequency to the highest with DC in the middle.
	row := make([]float64, n)
	for i, c := range coeffs {
		db := 20 * math.Log10(cmplx.Abs(c)/float64(n)+1e-12)
		row[(i+n/2)%n] = db
		if db < s.MinPower {
			s.MinPower = db
		}
		if db > s.MaxPower {
			s.MaxPower = db
		}
	}
	s.Rows = append(s.Rows, row)
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
