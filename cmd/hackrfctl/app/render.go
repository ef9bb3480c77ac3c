package app

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	hueStart = 236.0
	hueEnd   = 0.0

	fontDPI     = 72
	fontSize    = 18
	labelMargin = 5
)

// pixelColor maps a dB power onto the blue-to-red HSV ramp. Powers outside
// the [min, max] band clamp to the ramp ends.
func pixelColor(power, minPower, maxPower float64) color.Color {
	span := maxPower - minPower
	if span <= 0 {
		return color.Black
	}

	hPerDB := (hueStart - hueEnd) / span
	hue := hueStart - (power-minPower)*hPerDB
	hue = math.Min(math.Max(hue, hueEnd), hueStart)

	return colorful.Hsv(hue, 1, 0.90)
}

// labeler draws text onto the waterfall. A TTF font renders through freetype;
// without one the built-in bitmap face is used.
type labeler struct {
	ft   *freetype.Context
	face font.Face
}

func newLabeler(fontPath string, img *image.RGBA) (*labeler, error) {
	if fontPath == "" {
		return &labeler{face: basicfont.Face7x13}, nil
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}
	parsed, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ft := freetype.NewContext()
	ft.SetDPI(fontDPI)
	ft.SetFont(parsed)
	ft.SetFontSize(fontSize)
	ft.SetSrc(image.White)
	ft.SetHinting(font.HintingFull)
	ft.SetClip(img.Bounds())
	ft.SetDst(img)
	return &labeler{ft: ft}, nil
}

func (l *labeler) draw(img *image.RGBA, x, y int, s string) {
	if l.ft != nil {
		_, _ = l.ft.DrawString(s, freetype.Pt(x, y))
		return
	}

	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: l.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// renderSpectrum paints the waterfall, one image row per FFT frame with time
// running down, and annotates the frequency and time axes.
func renderSpectrum(spec *spectrumData, fontPath string) (*image.RGBA, error) {
	width := len(spec.Rows[0])
	height := len(spec.Rows)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y, row := range spec.Rows {
		for x, power := range row {
			img.Set(x, y, pixelColor(power, spec.MinPower, spec.MaxPower))
		}
	}

	l, err := newLabeler(fontPath, img)
	if err != nil {
		return nil, err
	}

	drawFrequencyScale(img, l, spec)
	drawTimeScale(img, l, spec)
	return img, nil
}

func drawFrequencyScale(img *image.RGBA, l *labeler, spec *spectrumData) {
	width := img.Bounds().Dx()
	count := width / 256
	if count < 2 {
		count = 2
	}

	hzPerLabel := (spec.FrequencyMax - spec.FrequencyMin) / float64(count)
	pxPerLabel := width / count

	for i := 0; i < count; i++ {
		hz := spec.FrequencyMin + float64(i)*hzPerLabel
		px := i * pxPerLabel

		// guideline on the exact frequency
		for y := 0; y < 24; y++ {
			img.Set(px, y, image.White)
		}

		value, suffix := humanize.ComputeSI(hz)
		l.draw(img, px+labelMargin, 17, fmt.Sprintf("%.2f %sHz", value, suffix))
	}
}

func drawTimeScale(img *image.RGBA, l *labeler, spec *spectrumData) {
	height := img.Bounds().Dy()
	count := height / 128
	if count == 0 {
		return
	}

	perLabel := spec.Duration / time.Duration(count)
	pxPerLabel := height / count

	for i := 1; i < count; i++ {
		px := i * pxPerLabel

		// guideline on the exact offset
		for x := 0; x < 60; x++ {
			img.Set(x, px, image.White)
		}

		offset := time.Duration(i) * perLabel
		l.draw(img, labelMargin, px-labelMargin, fmt.Sprintf("+%s", offset.Round(time.Millisecond)))
	}
}
