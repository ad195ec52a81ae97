package repository

import (
	"context"
	"testing"
	"time"

	"agro-kyc/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MemoryDocumentRepositorySuite struct {
	suite.Suite
	repo   *MemoryDocumentRepository
	ctx    context.Context
	userID uuid.UUID
	base   time.Time
}

func TestMemoryDocumentRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryDocumentRepositorySuite))
}

func (s *MemoryDocumentRepositorySuite) SetupTest() {
	s.repo = NewMemoryDocumentRepository()
	s.ctx = context.Background()
	s.userID = uuid.New()
	s.base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *MemoryDocumentRepositorySuite) create(userID uuid.UUID, offset time.Duration) *models.UploadedDocument {
	doc := &models.UploadedDocument{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       models.DocumentTypeIdentity,
		Status:     models.DocumentStatusPendingReview,
		Validation: models.ValidationResult{MatchedRules: []string{"name"}},
		UploadedAt: s.base.Add(offset),
	}
	s.Require().NoError(s.repo.Create(s.ctx, doc))
	return doc
}

func (s *MemoryDocumentRepositorySuite) TestGetByIDReturnsCopy() {
	doc := s.create(s.userID, 0)

	got, err := s.repo.GetByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	got.Validation.MatchedRules[0] = "mutated"
	got.Status = models.DocumentStatusApproved

	again, err := s.repo.GetByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal("name", again.Validation.MatchedRules[0])
	s.Equal(models.DocumentStatusPendingReview, again.Status)
}

func (s *MemoryDocumentRepositorySuite) TestGetByIDNotFound() {
	_, err := s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrNotFound)
}

func (s *MemoryDocumentRepositorySuite) TestCreateDuplicate() {
	doc := s.create(s.userID, 0)
	s.ErrorIs(s.repo.Create(s.ctx, doc), ErrDuplicate)
}

func (s *MemoryDocumentRepositorySuite) TestListAllOrderedByUpload() {
	late := s.create(s.userID, time.Hour)
	early := s.create(s.userID, 0)
	s.create(uuid.New(), 0)

	docs, err := s.repo.ListAllByUserID(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(early.ID, docs[0].ID)
	s.Equal(late.ID, docs[1].ID)
}

func (s *MemoryDocumentRepositorySuite) TestListByUserIDPaginatesNewestFirst() {
	first := s.create(s.userID, 0)
	second := s.create(s.userID, time.Minute)
	third := s.create(s.userID, 2*time.Minute)

	page, err := s.repo.ListByUserID(s.ctx, s.userID, 2, 0)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(third.ID, page[0].ID)
	s.Equal(second.ID, page[1].ID)

	page, err = s.repo.ListByUserID(s.ctx, s.userID, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(first.ID, page[0].ID)

	page, err = s.repo.ListByUserID(s.ctx, s.userID, 2, 10)
	s.Require().NoError(err)
	s.Empty(page)
}

func (s *MemoryDocumentRepositorySuite) TestUpdateReview() {
	doc := s.create(s.userID, 0)
	reviewer := uuid.New()
	at := s.base.Add(time.Hour)

	updated, err := s.repo.UpdateReview(s.ctx, doc.ID, models.DocumentStatusApproved, reviewer, "looks fine", at)
	s.Require().NoError(err)
	s.Equal(models.DocumentStatusApproved, updated.Status)
	s.Require().NotNil(updated.ReviewedBy)
	s.Equal(reviewer, *updated.ReviewedBy)
	s.Equal("looks fine", updated.ReviewNotes)
	s.True(updated.Reviewed())

	_, err = s.repo.UpdateReview(s.ctx, uuid.New(), models.DocumentStatusApproved, reviewer, "", at)
	s.ErrorIs(err, ErrNotFound)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	user := &models.User{
		ID:        uuid.New(),
		Username:  "maria",
		Email:     "maria@fazenda.com.br",
		Role:      models.RoleProducer,
		KYCStatus: models.KYCStatusIncomplete,
	}
	require.NoError(t, repo.Create(ctx, user))

	dup := *user
	dup.ID = uuid.New()
	dup.Username = "other"
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	got, err := repo.GetByEmail(ctx, "MARIA@fazenda.com.br")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, repo.UpdateKYCStatus(ctx, user.ID, models.KYCStatusApproved))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusApproved, got.KYCStatus)

	assert.ErrorIs(t, repo.UpdateKYCStatus(ctx, uuid.New(), models.KYCStatusApproved), ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
