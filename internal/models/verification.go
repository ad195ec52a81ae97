package models

import "github.com/google/uuid"

type KYCStatus string

const (
	KYCStatusIncomplete    KYCStatus = "incomplete"
	KYCStatusPendingReview KYCStatus = "pending_review"
	KYCStatusRejected      KYCStatus = "rejected"
	KYCStatusApproved      KYCStatus = "approved"
)

// RequirementState describes one required document type for a role.
type RequirementState struct {
	DocumentType DocumentType    `json:"document_type"`
	Approved     bool            `json:"approved"`
	LatestStatus *DocumentStatus `json:"latest_status,omitempty"`
}

// UserVerificationRecord is computed on demand from a user's documents and
// is never stored on its own.
type UserVerificationRecord struct {
	UserID        uuid.UUID          `json:"user_id"`
	Role          Role               `json:"role"`
	Requirements  []RequirementState `json:"requirements"`
	ApprovedCount int                `json:"approved_count"`
	RequiredCount int                `json:"required_count"`
	KYCStatus     KYCStatus          `json:"kyc_status"`
	Progress      float64            `json:"progress"`
}
