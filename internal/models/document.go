package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypeIdentity             DocumentType = "identity"
	DocumentTypeProofOfAddress       DocumentType = "proof_of_address"
	DocumentTypeDriverLicense        DocumentType = "driver_license"
	DocumentTypeVehicleRegistration  DocumentType = "vehicle_registration"
	DocumentTypeBusinessRegistration DocumentType = "business_registration"
	DocumentTypeOther                DocumentType = "other"
)

// ParseDocumentType accepts both the snake_case tags and the hyphenated
// spelling used by older mobile clients.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch s {
	case "identity":
		return DocumentTypeIdentity, true
	case "proof_of_address", "proof-of-address":
		return DocumentTypeProofOfAddress, true
	case "driver_license", "driver-license":
		return DocumentTypeDriverLicense, true
	case "vehicle_registration", "vehicle-registration":
		return DocumentTypeVehicleRegistration, true
	case "business_registration", "business-registration":
		return DocumentTypeBusinessRegistration, true
	case "other":
		return DocumentTypeOther, true
	}
	return "", false
}

type DocumentStatus string

const (
	DocumentStatusPendingReview DocumentStatus = "pending_review"
	DocumentStatusApproved      DocumentStatus = "approved"
	DocumentStatusRejected      DocumentStatus = "rejected"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPendingReview, DocumentStatusApproved, DocumentStatusRejected:
		return true
	}
	return false
}

// ValidationResult is the Pattern Validator output.
type ValidationResult struct {
	IsValid      bool     `json:"is_valid"`
	Score        float64  `json:"score"`
	MatchedRules []string `json:"matched_rules"`
	Confidence   float64  `json:"confidence"`
}

// FraudAssessment is the Fraud Heuristic Scorer output.
type FraudAssessment struct {
	IsSuspected         bool     `json:"is_suspected"`
	FraudScore          float64  `json:"fraud_score"`
	TriggeredIndicators []string `json:"triggered_indicators"`
}

// UploadedDocument is one KYC submission. Uploads are never updated in
// place; only Status and the review fields change after creation.
type UploadedDocument struct {
	ID              uuid.UUID        `db:"id"`
	UserID          uuid.UUID        `db:"user_id"`
	Type            DocumentType     `db:"type"`
	FileName        string           `db:"file_name"`
	FileSize        int64            `db:"file_size"`
	FileURL         string           `db:"file_url"`
	MimeType        string           `db:"mime_type"`
	ExtractedText   string           `db:"extracted_text"`
	OCRConfidence   float64          `db:"ocr_confidence"`
	Validation      ValidationResult `db:"validation"`
	FraudAssessment FraudAssessment  `db:"fraud_assessment"`
	Status          DocumentStatus   `db:"status"`
	ReviewedBy      *uuid.UUID       `db:"reviewed_by"`
	ReviewedAt      *time.Time       `db:"reviewed_at"`
	ReviewNotes     string           `db:"review_notes"`
	UploadedAt      time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

// Reviewed reports whether a reviewer override has been applied.
func (d *UploadedDocument) Reviewed() bool {
	return d.ReviewedBy != nil && d.ReviewedAt != nil
}
