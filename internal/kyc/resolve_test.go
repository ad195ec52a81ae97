package kyc

import (
	"testing"

	"agro-kyc/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name       string
		suspected  bool
		valid      bool
		wantStatus models.DocumentStatus
	}{
		{"fraud wins over valid", true, true, models.DocumentStatusRejected},
		{"fraud and invalid", true, false, models.DocumentStatusRejected},
		{"clean and valid", false, true, models.DocumentStatusApproved},
		{"clean and invalid", false, false, models.DocumentStatusPendingReview},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveStatus(
				models.FraudAssessment{IsSuspected: tc.suspected},
				models.ValidationResult{IsValid: tc.valid},
			)
			assert.Equal(t, tc.wantStatus, got)
			assert.True(t, got.Valid())
		})
	}
}
