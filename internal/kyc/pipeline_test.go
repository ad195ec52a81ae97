package kyc

import (
	"bytes"
	"context"
	"testing"

	"agro-kyc/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(rec Recognizer, raster Rasterizer) *Pipeline {
	return NewPipeline(DefaultRules(), NewPreprocessor(), NewExtractor(rec, raster, nil, 0), 0)
}

func TestPipelineRun(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		docType       models.DocumentType
		wantStatus    models.DocumentStatus
		wantValid     bool
		wantSuspected bool
	}{
		{"valid identity", identityText, models.DocumentTypeIdentity, models.DocumentStatusApproved, true, false},
		{"valid address", addressText, models.DocumentTypeProofOfAddress, models.DocumentStatusApproved, true, false},
		{"sample document", sampleIdentityText, models.DocumentTypeIdentity, models.DocumentStatusRejected, true, true},
		{"unreadable scan", "", models.DocumentTypeIdentity, models.DocumentStatusPendingReview, false, false},
		{"wrong document type", addressText, models.DocumentTypeIdentity, models.DocumentStatusPendingReview, false, false},
		{"no rule set", identityText, models.DocumentTypeOther, models.DocumentStatusPendingReview, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPipeline(&fakeRecognizer{text: tc.text, confidence: 0.9}, nil)
			data := pngFixture(t, 32, 32)

			mimeType, err := p.Admit(data, "image/png")
			require.NoError(t, err)

			out, err := p.Run(context.Background(), data, mimeType, tc.docType)
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, out.Status)
			assert.Equal(t, tc.wantValid, out.Validation.IsValid)
			assert.Equal(t, tc.wantSuspected, out.Fraud.IsSuspected)
		})
	}
}

func TestPipelineAdmitRejectsOversize(t *testing.T) {
	p := newTestPipeline(&fakeRecognizer{}, nil)
	big := append(pngFixture(t, 4, 4), bytes.Repeat([]byte{0}, 15<<20)...)

	_, err := p.Admit(big, "image/png")
	assert.ErrorIs(t, err, ErrOversizeUpload)
}

func TestPipelineAdmitPDFWithoutRasterizer(t *testing.T) {
	p := newTestPipeline(&fakeRecognizer{}, nil)

	_, err := p.Admit(pdfFixture, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	p = newTestPipeline(&fakeRecognizer{}, &fakeRasterizer{})
	mimeType, err := p.Admit(pdfFixture, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, MimePDF, mimeType)
}

func TestPipelineRunPDF(t *testing.T) {
	raster := &fakeRasterizer{pages: []Page{{Text: addressText}}}
	p := newTestPipeline(&fakeRecognizer{}, raster)

	out, err := p.Run(context.Background(), pdfFixture, MimePDF, models.DocumentTypeProofOfAddress)
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusApproved, out.Status)
	assert.Equal(t, 1.0, out.Extraction.Confidence)
}

func TestPipelineRunCorruptImage(t *testing.T) {
	p := newTestPipeline(&fakeRecognizer{}, nil)
	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), []byte("garbage")...)

	_, err := p.Run(context.Background(), corrupt, MimePNG, models.DocumentTypeIdentity)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
