package service

import (
	"context"
	"time"

	"agro-kyc/internal/models"

	"github.com/google/uuid"
)

// DocumentStore is implemented by repository.DocumentRepository and
// repository.MemoryDocumentRepository.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.UploadedDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.UploadedDocument, error)
	ListAllByUserID(ctx context.Context, userID uuid.UUID) ([]*models.UploadedDocument, error)
	UpdateReview(ctx context.Context, id uuid.UUID, status models.DocumentStatus, reviewerID uuid.UUID, notes string, reviewedAt time.Time) (*models.UploadedDocument, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateKYCStatus(ctx context.Context, id uuid.UUID, status models.KYCStatus) error
}
