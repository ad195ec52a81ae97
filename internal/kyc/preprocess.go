package kyc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// PreparedImage is the preprocessor output handed to the text extractor.
type PreparedImage struct {
	Data     []byte
	MimeType string
}

// DefaultMaxSourceDimension caps the declared width and height of an upload.
// A few kilobytes of compressed PNG can declare a canvas of gigabytes.
const DefaultMaxSourceDimension = 10000

// Preprocessor normalizes uploaded images for OCR. It never mutates its input.
type Preprocessor struct {
	// MaxSourceDimension bounds the decoded input; larger images are refused
	// before any pixel is allocated.
	MaxSourceDimension int
	MaxDimension       int
	Quality      int
	Sharpen      float64
	// ClipPercent is the share of darkest and brightest pixels ignored when
	// stretching contrast.
	ClipPercent float64
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		MaxSourceDimension: DefaultMaxSourceDimension,
		MaxDimension:       2000,
		Quality:            90,
		Sharpen:            1.0,
		ClipPercent:        0.01,
	}
}

// Process resizes, sharpens and contrast-stretches an image and re-encodes it
// as JPEG. PDFs pass through untouched; rasterization belongs to the extractor.
func (p *Preprocessor) Process(data []byte, mimeType string) (PreparedImage, error) {
	if mimeType == MimePDF {
		return PreparedImage{Data: data, MimeType: MimePDF}, nil
	}
	if !IsImage(mimeType) {
		return PreparedImage{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return PreparedImage{}, fmt.Errorf("%w: cannot decode image: %v", ErrUnsupportedFormat, err)
	}
	if limit := p.MaxSourceDimension; limit > 0 && (cfg.Width > limit || cfg.Height > limit) {
		return PreparedImage{}, fmt.Errorf("%w: image is %dx%d pixels, limit is %dx%d",
			ErrUnsupportedFormat, cfg.Width, cfg.Height, limit, limit)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return PreparedImage{}, fmt.Errorf("%w: cannot decode image: %v", ErrUnsupportedFormat, err)
	}

	out := imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)
	if p.Sharpen > 0 {
		out = imaging.Sharpen(out, p.Sharpen)
	}
	out = p.stretchContrast(out)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return PreparedImage{}, fmt.Errorf("failed to encode image: %w", err)
	}

	return PreparedImage{Data: buf.Bytes(), MimeType: MimeJPEG}, nil
}

// stretchContrast maps the clipped luminance range of img onto 0..255.
func (p *Preprocessor) stretchContrast(img *image.NRGBA) *image.NRGBA {
	lo, hi := luminanceBounds(img, p.ClipPercent)
	if hi <= lo {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	stretch := func(v uint8) uint8 {
		f := (float64(v) - float64(lo)) * scale
		switch {
		case f < 0:
			return 0
		case f > 255:
			return 255
		}
		return uint8(f + 0.5)
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}

func luminanceBounds(img *image.NRGBA, clip float64) (uint8, uint8) {
	var hist [256]int
	total := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			px := row[x*4 : x*4+3]
			l := (299*int(px[0]) + 587*int(px[1]) + 114*int(px[2])) / 1000
			hist[l]++
			total++
		}
	}
	if total == 0 {
		return 0, 0
	}

	cut := int(float64(total) * clip)
	lo, hi := 0, 255
	for acc := 0; lo < 255; lo++ {
		acc += hist[lo]
		if acc > cut {
			break
		}
	}
	for acc := 0; hi > 0; hi-- {
		acc += hist[hi]
		if acc > cut {
			break
		}
	}
	return uint8(lo), uint8(hi)
}
