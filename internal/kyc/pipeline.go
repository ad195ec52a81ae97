package kyc

import (
	"context"
	"fmt"

	"agro-kyc/internal/models"

	"golang.org/x/sync/errgroup"
)

// Outcome carries every stage result of one upload.
type Outcome struct {
	MimeType   string
	Extraction Extraction
	Validation models.ValidationResult
	Fraud      models.FraudAssessment
	Status     models.DocumentStatus
}

// Pipeline chains the per-document stages:
// preprocess -> extract -> {validate, fraud score} -> resolve.
type Pipeline struct {
	rules        *Rules
	preprocessor *Preprocessor
	extractor    *Extractor
	maxBytes     int64
}

func NewPipeline(rules *Rules, preprocessor *Preprocessor, extractor *Extractor, maxBytes int64) *Pipeline {
	if preprocessor == nil {
		preprocessor = NewPreprocessor()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Pipeline{
		rules:        rules,
		preprocessor: preprocessor,
		extractor:    extractor,
		maxBytes:     maxBytes,
	}
}

func (p *Pipeline) Rules() *Rules { return p.rules }

func (p *Pipeline) Languages() []string { return p.extractor.Languages() }

// Admit applies the format and size gate and returns the normalized mime
// type. Nothing has been persisted when it fails.
func (p *Pipeline) Admit(data []byte, declared string) (string, error) {
	mimeType, err := CheckUpload(data, declared, p.maxBytes)
	if err != nil {
		return "", err
	}
	if !p.extractor.Supports(mimeType) {
		return "", fmt.Errorf("%w: %s cannot be processed, rasterization unavailable", ErrUnsupportedFormat, mimeType)
	}
	return mimeType, nil
}

// Run executes the stages for an admitted upload. The only errors returned
// are hard preprocessing failures; OCR trouble degrades into an empty
// extraction and a pending_review status.
func (p *Pipeline) Run(ctx context.Context, data []byte, mimeType string, docType models.DocumentType) (Outcome, error) {
	prepared, err := p.preprocessor.Process(data, mimeType)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{MimeType: mimeType}
	out.Extraction = p.extractor.Extract(ctx, prepared)

	// Both stages only read the extracted text; each writes its own field.
	var g errgroup.Group
	g.Go(func() error {
		out.Validation = ValidateDocument(p.rules, out.Extraction.Text, docType)
		return nil
	})
	g.Go(func() error {
		out.Fraud = ScoreFraud(p.rules, out.Extraction.Text)
		return nil
	})
	_ = g.Wait()

	out.Status = ResolveStatus(out.Fraud, out.Validation)
	return out, nil
}
