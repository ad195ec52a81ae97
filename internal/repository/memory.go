package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agro-kyc/internal/models"

	"github.com/google/uuid"
)

// MemoryDocumentRepository keeps documents in process memory. It backs
// STORAGE_DRIVER=memory and the service tests.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*models.UploadedDocument
	// insertion order breaks ties between equal upload timestamps
	order []uuid.UUID
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[uuid.UUID]*models.UploadedDocument)}
}

func (r *MemoryDocumentRepository) Create(_ context.Context, doc *models.UploadedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[doc.ID]; ok {
		return ErrDuplicate
	}
	r.docs[doc.ID] = cloneDocument(doc)
	r.order = append(r.order, doc.ID)
	return nil
}

func (r *MemoryDocumentRepository) GetByID(_ context.Context, id uuid.UUID) (*models.UploadedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (r *MemoryDocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.UploadedDocument, error) {
	all, _ := r.ListAllByUserID(ctx, userID)

	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *MemoryDocumentRepository) ListAllByUserID(_ context.Context, userID uuid.UUID) ([]*models.UploadedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.UploadedDocument
	for _, id := range r.order {
		if doc := r.docs[id]; doc.UserID == userID {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

func (r *MemoryDocumentRepository) UpdateReview(_ context.Context, id uuid.UUID, status models.DocumentStatus, reviewerID uuid.UUID, notes string, reviewedAt time.Time) (*models.UploadedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	reviewer := reviewerID
	at := reviewedAt
	doc.Status = status
	doc.ReviewedBy = &reviewer
	doc.ReviewedAt = &at
	doc.ReviewNotes = notes
	doc.UpdatedAt = reviewedAt
	return cloneDocument(doc), nil
}

func cloneDocument(doc *models.UploadedDocument) *models.UploadedDocument {
	c := *doc
	c.Validation.MatchedRules = append([]string{}, doc.Validation.MatchedRules...)
	c.FraudAssessment.TriggeredIndicators = append([]string(nil), doc.FraudAssessment.TriggeredIndicators...)
	if doc.ReviewedBy != nil {
		v := *doc.ReviewedBy
		c.ReviewedBy = &v
	}
	if doc.ReviewedAt != nil {
		v := *doc.ReviewedAt
		c.ReviewedAt = &v
	}
	return &c
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == user.ID || strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return ErrDuplicate
		}
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *MemoryUserRepository) UpdateKYCStatus(_ context.Context, id uuid.UUID, status models.KYCStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.KYCStatus = status
	u.UpdatedAt = time.Now()
	return nil
}
