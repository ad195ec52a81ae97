package kyc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultOCRTimeout bounds a whole extraction, all pages included.
const DefaultOCRTimeout = 30 * time.Second

// Recognition is the output of an OCR capability.
type Recognition struct {
	Text       string
	Confidence float64
}

// Recognizer is the OCR capability. Implementations must return once ctx is done.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, languages []string) (Recognition, error)
}

// Page is one page of a PDF: its embedded text layer, if any, and a rendered
// image for OCR when the text layer is empty.
type Page struct {
	Text  string
	Image []byte
}

// Rasterizer splits a PDF into pages.
type Rasterizer interface {
	Pages(ctx context.Context, pdf []byte) ([]Page, error)
}

// Extraction is the text extractor output. Failure records why extraction
// degraded to empty text; it is informational and never stops the pipeline.
type Extraction struct {
	Text       string
	Confidence float64
	Pages      int
	Failure    error
}

type Extractor struct {
	recognizer Recognizer
	rasterizer Rasterizer
	languages  []string
	timeout    time.Duration
}

// NewExtractor builds the text extractor. rasterizer may be nil, in which
// case PDFs cannot be processed.
func NewExtractor(recognizer Recognizer, rasterizer Rasterizer, languages []string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultOCRTimeout
	}
	if len(languages) == 0 {
		languages = []string{"por", "eng"}
	}
	return &Extractor{
		recognizer: recognizer,
		rasterizer: rasterizer,
		languages:  languages,
		timeout:    timeout,
	}
}

// Supports reports whether the extractor can handle a normalized mime type.
func (e *Extractor) Supports(mimeType string) bool {
	if mimeType == MimePDF {
		return e.rasterizer != nil
	}
	return IsImage(mimeType)
}

// Languages returns the language hints passed to the recognizer.
func (e *Extractor) Languages() []string {
	return e.languages
}

// Extract turns a prepared image or PDF into text. OCR failure and timeout
// yield empty text with zero confidence rather than an error.
func (e *Extractor) Extract(ctx context.Context, img PreparedImage) Extraction {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var (
		ext Extraction
		err error
	)
	if img.MimeType == MimePDF {
		ext, err = e.extractPDF(ctx, img.Data)
	} else {
		ext, err = e.recognize(ctx, img.Data)
		ext.Pages = 1
	}

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return Extraction{Pages: ext.Pages, Failure: err}
	}
	if ext.Text == "" {
		ext.Confidence = 0
	}
	return ext
}

func (e *Extractor) recognize(ctx context.Context, image []byte) (Extraction, error) {
	if e.recognizer == nil {
		return Extraction{}, errors.New("no OCR recognizer configured")
	}
	rec, err := e.recognizer.Recognize(ctx, image, e.languages)
	if err != nil {
		return Extraction{}, fmt.Errorf("ocr: %w", err)
	}
	return Extraction{
		Text:       strings.TrimSpace(rec.Text),
		Confidence: clamp01(rec.Confidence),
	}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (Extraction, error) {
	if e.rasterizer == nil {
		return Extraction{}, fmt.Errorf("%w: pdf rasterization unavailable", ErrUnsupportedFormat)
	}

	pages, err := e.rasterizer.Pages(ctx, data)
	if err != nil {
		return Extraction{}, fmt.Errorf("rasterize pdf: %w", err)
	}

	var (
		texts   []string
		confSum float64
	)
	for i, page := range pages {
		if text := strings.TrimSpace(page.Text); text != "" {
			texts = append(texts, text)
			confSum += 1
			continue
		}
		if len(page.Image) == 0 {
			continue
		}
		ext, err := e.recognize(ctx, page.Image)
		if err != nil {
			return Extraction{Pages: len(pages)}, fmt.Errorf("page %d: %w", i+1, err)
		}
		if ext.Text != "" {
			texts = append(texts, ext.Text)
		}
		confSum += ext.Confidence
	}

	out := Extraction{
		Text:  strings.Join(texts, "\n"),
		Pages: len(pages),
	}
	if len(pages) > 0 {
		out.Confidence = confSum / float64(len(pages))
	}
	return out, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
