package ocr

import (
	"context"
	"fmt"
	"runtime"

	"agro-kyc/internal/kyc"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type TesseractRecognizer struct {
	tessdataPrefix string
	slots          *semaphore.Weighted
	run            func(image []byte, languages []string) (kyc.Recognition, error)
	logger         *zap.Logger
}

// NewTesseractRecognizer creates a recognizer backed by the local Tesseract
// installation. tessdataPrefix may be empty to use the library default.
// maxConcurrent caps engine runs in flight, including abandoned ones; values
// below 1 mean one per CPU.
func NewTesseractRecognizer(tessdataPrefix string, maxConcurrent int, logger *zap.Logger) *TesseractRecognizer {
	if maxConcurrent < 1 {
		maxConcurrent = runtime.NumCPU()
	}
	r := &TesseractRecognizer{
		tessdataPrefix: tessdataPrefix,
		slots:          semaphore.NewWeighted(int64(maxConcurrent)),
		logger:         logger,
	}
	r.run = r.recognize
	return r
}

// Recognize runs Tesseract with all language hints loaded at once, so mixed
// Portuguese/English documents are read in a single pass. Tesseract itself
// cannot be interrupted; on ctx expiry the result is abandoned but the run
// keeps its slot until the engine returns.
func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte, languages []string) (kyc.Recognition, error) {
	type result struct {
		rec kyc.Recognition
		err error
	}

	if err := r.slots.Acquire(ctx, 1); err != nil {
		r.logger.Warn("No free Tesseract slot", zap.Error(err))
		return kyc.Recognition{}, err
	}

	done := make(chan result, 1)
	go func() {
		defer r.slots.Release(1)
		rec, err := r.run(image, languages)
		done <- result{rec: rec, err: err}
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("Tesseract recognition abandoned", zap.Error(ctx.Err()))
		return kyc.Recognition{}, ctx.Err()
	case res := <-done:
		return res.rec, res.err
	}
}

func (r *TesseractRecognizer) recognize(image []byte, languages []string) (kyc.Recognition, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if r.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.tessdataPrefix); err != nil {
			return kyc.Recognition{}, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(languages...); err != nil {
		return kyc.Recognition{}, fmt.Errorf("failed to set languages: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return kyc.Recognition{}, fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return kyc.Recognition{}, fmt.Errorf("failed to recognize text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		r.logger.Warn("Failed to read word confidences", zap.Error(err))
		return kyc.Recognition{Text: text}, nil
	}

	var sum float64
	for _, box := range boxes {
		sum += box.Confidence
	}
	confidence := 0.0
	if len(boxes) > 0 {
		// Tesseract reports 0-100 per word.
		confidence = sum / float64(len(boxes)) / 100
	}

	r.logger.Debug("Tesseract recognition completed",
		zap.Strings("languages", languages),
		zap.Int("words", len(boxes)),
		zap.Float64("confidence", confidence),
	)

	return kyc.Recognition{Text: text, Confidence: confidence}, nil
}
