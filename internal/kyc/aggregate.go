package kyc

import (
	"agro-kyc/internal/models"

	"github.com/google/uuid"
)

// Aggregate derives the user-level KYC view from the user's full document
// set. It is a pure function of its inputs, so callers recompute it on every
// read instead of maintaining it incrementally.
//
// A newer upload of a type supersedes older ones for the rejected and pending
// checks, which is how a user recovers from a rejected document. Approval of
// a required type only needs one approved document of that type.
func Aggregate(userID uuid.UUID, role models.Role, required []models.DocumentType, docs []*models.UploadedDocument) models.UserVerificationRecord {
	latest := make(map[models.DocumentType]*models.UploadedDocument)
	approved := make(map[models.DocumentType]bool)

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		// docs arrive in insertion order, so on equal timestamps the later
		// entry wins.
		if cur, ok := latest[doc.Type]; !ok || !doc.UploadedAt.Before(cur.UploadedAt) {
			latest[doc.Type] = doc
		}
		if doc.Status == models.DocumentStatusApproved {
			approved[doc.Type] = true
		}
	}

	record := models.UserVerificationRecord{
		UserID:        userID,
		Role:          role,
		Requirements:  make([]models.RequirementState, 0, len(required)),
		RequiredCount: len(required),
	}

	for _, docType := range required {
		state := models.RequirementState{
			DocumentType: docType,
			Approved:     approved[docType],
		}
		if doc, ok := latest[docType]; ok {
			status := doc.Status
			state.LatestStatus = &status
		}
		if state.Approved {
			record.ApprovedCount++
		}
		record.Requirements = append(record.Requirements, state)
	}

	var anyRejected, anyPending bool
	for _, doc := range latest {
		switch doc.Status {
		case models.DocumentStatusRejected:
			anyRejected = true
		case models.DocumentStatusPendingReview:
			anyPending = true
		}
	}

	switch {
	case record.ApprovedCount == record.RequiredCount:
		record.KYCStatus = models.KYCStatusApproved
	case anyRejected:
		record.KYCStatus = models.KYCStatusRejected
	case anyPending:
		record.KYCStatus = models.KYCStatusPendingReview
	default:
		record.KYCStatus = models.KYCStatusIncomplete
	}

	if record.RequiredCount == 0 {
		record.Progress = 100
	} else {
		record.Progress = float64(record.ApprovedCount) / float64(record.RequiredCount) * 100
	}

	return record
}
