package dto

import (
	"time"

	"agro-kyc/internal/models"
)

type ValidationResponse struct {
	IsValid      bool     `json:"is_valid"`
	Score        float64  `json:"score"`
	MatchedRules []string `json:"matched_rules"`
	Confidence   float64  `json:"confidence"`
}

type FraudResponse struct {
	IsSuspected         bool     `json:"is_suspected"`
	FraudScore          float64  `json:"fraud_score"`
	TriggeredIndicators []string `json:"triggered_indicators"`
}

type DocumentResponse struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	Type            string             `json:"type"`
	FileName        string             `json:"file_name"`
	FileSize        int64              `json:"file_size"`
	FileURL         string             `json:"file_url"`
	MimeType        string             `json:"mime_type"`
	ExtractedText   string             `json:"extracted_text,omitempty"`
	OCRConfidence   float64            `json:"ocr_confidence"`
	Validation      ValidationResponse `json:"validation"`
	FraudAssessment FraudResponse      `json:"fraud_assessment"`
	Status          string             `json:"status"`
	ReviewedBy      string             `json:"reviewed_by,omitempty"`
	ReviewedAt      string             `json:"reviewed_at,omitempty"`
	ReviewNotes     string             `json:"review_notes,omitempty"`
	UploadedAt      string             `json:"uploaded_at"`
}

type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// SubmitDocumentResponse is returned by the upload endpoint: the stored
// document plus the user's verification after re-aggregation. Verification
// is omitted when re-aggregation failed.
type SubmitDocumentResponse struct {
	Document     DocumentResponse      `json:"document"`
	Verification *VerificationResponse `json:"verification,omitempty"`
}

type ReviewDocumentRequest struct {
	Status string `json:"status" validate:"required,oneof=pending_review approved rejected"`
	Reason string `json:"reason" validate:"max=2000"`
}

func NewDocumentResponse(doc *models.UploadedDocument) *DocumentResponse {
	resp := &DocumentResponse{
		ID:            doc.ID.String(),
		UserID:        doc.UserID.String(),
		Type:          string(doc.Type),
		FileName:      doc.FileName,
		FileSize:      doc.FileSize,
		FileURL:       doc.FileURL,
		MimeType:      doc.MimeType,
		ExtractedText: doc.ExtractedText,
		OCRConfidence: doc.OCRConfidence,
		Validation: ValidationResponse{
			IsValid:      doc.Validation.IsValid,
			Score:        doc.Validation.Score,
			MatchedRules: nonNil(doc.Validation.MatchedRules),
			Confidence:   doc.Validation.Confidence,
		},
		FraudAssessment: FraudResponse{
			IsSuspected:         doc.FraudAssessment.IsSuspected,
			FraudScore:          doc.FraudAssessment.FraudScore,
			TriggeredIndicators: nonNil(doc.FraudAssessment.TriggeredIndicators),
		},
		Status:      string(doc.Status),
		ReviewNotes: doc.ReviewNotes,
		UploadedAt:  doc.UploadedAt.Format(time.RFC3339),
	}
	if doc.ReviewedBy != nil {
		resp.ReviewedBy = doc.ReviewedBy.String()
	}
	if doc.ReviewedAt != nil {
		resp.ReviewedAt = doc.ReviewedAt.Format(time.RFC3339)
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
