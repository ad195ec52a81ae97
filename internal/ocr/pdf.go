package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"agro-kyc/internal/kyc"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// FitzRasterizer reads PDFs with MuPDF through go-fitz. Pages with a text
// layer are returned as text; scanned pages are rendered for OCR.
type FitzRasterizer struct {
	dpi      float64
	maxPages int
	logger   *zap.Logger
}

func NewFitzRasterizer(dpi float64, maxPages int, logger *zap.Logger) *FitzRasterizer {
	if dpi <= 0 {
		dpi = 200
	}
	if maxPages <= 0 {
		maxPages = 10
	}
	return &FitzRasterizer{
		dpi:      dpi,
		maxPages: maxPages,
		logger:   logger,
	}
}

func (r *FitzRasterizer) Pages(ctx context.Context, pdf []byte) ([]kyc.Page, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	if numPages > r.maxPages {
		r.logger.Warn("PDF has more pages than allowed, truncating",
			zap.Int("pages", numPages),
			zap.Int("max_pages", r.maxPages),
		)
		numPages = r.maxPages
	}

	pages := make([]kyc.Page, 0, numPages)
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := doc.Text(i)
		if err != nil {
			r.logger.Warn("Failed to extract text layer from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, kyc.Page{Text: text})
			continue
		}

		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		pages = append(pages, kyc.Page{Image: buf.Bytes()})
	}

	r.logger.Info("PDF rasterized using go-fitz",
		zap.Int("pages", len(pages)),
		zap.Float64("dpi", r.dpi),
	)

	return pages, nil
}
