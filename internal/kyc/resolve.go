package kyc

import "agro-kyc/internal/models"

// ResolveStatus derives the document status at creation time.
// Rule priority:
//  1. Suspected fraud rejects, even when validation passed.
//  2. Valid documents are approved.
//  3. Everything else waits for a reviewer.
func ResolveStatus(fraud models.FraudAssessment, validation models.ValidationResult) models.DocumentStatus {
	if fraud.IsSuspected {
		return models.DocumentStatusRejected
	}
	if validation.IsValid {
		return models.DocumentStatusApproved
	}
	return models.DocumentStatusPendingReview
}
