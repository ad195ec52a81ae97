package dto

import "agro-kyc/internal/models"

type RequirementResponse struct {
	DocumentType string `json:"document_type"`
	Approved     bool   `json:"approved"`
	LatestStatus string `json:"latest_status,omitempty"`
}

type VerificationResponse struct {
	UserID        string                `json:"user_id"`
	Role          string                `json:"role"`
	KYCStatus     string                `json:"kyc_status"`
	Progress      float64               `json:"progress"`
	ApprovedCount int                   `json:"approved_count"`
	RequiredCount int                   `json:"required_count"`
	Requirements  []RequirementResponse `json:"requirements"`
}

func NewVerificationResponse(rec models.UserVerificationRecord) VerificationResponse {
	reqs := make([]RequirementResponse, len(rec.Requirements))
	for i, r := range rec.Requirements {
		reqs[i] = RequirementResponse{
			DocumentType: string(r.DocumentType),
			Approved:     r.Approved,
		}
		if r.LatestStatus != nil {
			reqs[i].LatestStatus = string(*r.LatestStatus)
		}
	}
	return VerificationResponse{
		UserID:        rec.UserID.String(),
		Role:          string(rec.Role),
		KYCStatus:     string(rec.KYCStatus),
		Progress:      rec.Progress,
		ApprovedCount: rec.ApprovedCount,
		RequiredCount: rec.RequiredCount,
		Requirements:  reqs,
	}
}
