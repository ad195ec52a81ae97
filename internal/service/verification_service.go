package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"agro-kyc/internal/kyc"
	"agro-kyc/internal/metrics"
	"agro-kyc/internal/models"
	"agro-kyc/internal/notify"
	"agro-kyc/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitResult is the stored document together with the owner's verification
// record recomputed right after it was stored. Verification is nil when the
// re-aggregation failed; the document is persisted regardless.
type SubmitResult struct {
	Document     *models.UploadedDocument
	Verification *models.UserVerificationRecord
}

// VerificationService runs uploads through the KYC pipeline, persists the
// outcome and keeps the user's cached kyc_status in line with the aggregate.
type VerificationService struct {
	docRepo    DocumentStore
	userRepo   UserStore
	pipeline   *kyc.Pipeline
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
	uploadDir  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewVerificationService wires the service. dispatcher and m may be nil.
func NewVerificationService(
	docRepo DocumentStore,
	userRepo UserStore,
	pipeline *kyc.Pipeline,
	dispatcher *notify.Dispatcher,
	m *metrics.Metrics,
	uploadDir string,
	logger *zap.Logger,
) *VerificationService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}

	return &VerificationService{
		docRepo:    docRepo,
		userRepo:   userRepo,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		metrics:    m,
		uploadDir:  uploadDir,
		logger:     logger,
		now:        time.Now,
	}
}

// SubmitDocument gates the upload on format and size, runs the pipeline and
// stores the resolved document. Format and size errors return before
// anything is written.
func (s *VerificationService) SubmitDocument(ctx context.Context, userID uuid.UUID, docType models.DocumentType, data []byte, fileName, declaredMime string) (*SubmitResult, error) {
	mimeType, err := s.pipeline.Admit(data, declaredMime)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	started := s.now()
	out, err := s.pipeline.Run(ctx, data, mimeType, docType)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveOCR(s.now().Sub(started), out.Extraction.Failure != nil)
	}
	if out.Extraction.Failure != nil {
		s.logger.Warn("Text extraction degraded to empty text",
			zap.Error(out.Extraction.Failure),
			zap.String("user_id", userID.String()),
			zap.String("document_type", string(docType)),
		)
	}

	docID := uuid.New()
	storedName := docID.String() + extensionFor(mimeType)
	filePath := filepath.Join(s.uploadDir, storedName)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	now := s.now()
	doc := &models.UploadedDocument{
		ID:              docID,
		UserID:          userID,
		Type:            docType,
		FileName:        sanitizeText(fileName),
		FileSize:        int64(len(data)),
		FileURL:         "/api/v1/documents/" + docID.String() + "/file",
		MimeType:        mimeType,
		ExtractedText:   sanitizeText(out.Extraction.Text),
		OCRConfidence:   out.Extraction.Confidence,
		Validation:      out.Validation,
		FraudAssessment: out.Fraud,
		Status:          out.Status,
		UploadedAt:      now,
		UpdatedAt:       now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.Info("Document processed",
		zap.String("document_id", doc.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("document_type", string(docType)),
		zap.String("status", string(doc.Status)),
		zap.Float64("ocr_confidence", doc.OCRConfidence),
		zap.Float64("validation_confidence", doc.Validation.Confidence),
		zap.Strings("fraud_indicators", doc.FraudAssessment.TriggeredIndicators),
	)
	if s.metrics != nil {
		s.metrics.ObserveDocument(string(docType), string(doc.Status))
		if doc.FraudAssessment.IsSuspected {
			s.metrics.IncrementFraudSuspected()
		}
	}

	s.notifyDocument(doc)

	result := &SubmitResult{Document: doc}
	record, err := s.refreshVerification(ctx, user)
	if err != nil {
		s.logger.Error("Failed to re-aggregate verification after submission",
			zap.String("document_id", doc.ID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return result, nil
	}
	result.Verification = &record

	return result, nil
}

// GetUserVerification aggregates the user's current documents against the
// requirements of role. It does not write anything.
func (s *VerificationService) GetUserVerification(ctx context.Context, userID uuid.UUID, role models.Role) (models.UserVerificationRecord, error) {
	required, err := s.pipeline.Rules().Requirements(role)
	if err != nil {
		return models.UserVerificationRecord{}, err
	}

	docs, err := s.docRepo.ListAllByUserID(ctx, userID)
	if err != nil {
		return models.UserVerificationRecord{}, fmt.Errorf("failed to list documents: %w", err)
	}

	return kyc.Aggregate(userID, role, required, docs), nil
}

// GetVerificationForUser resolves the role from the stored account.
func (s *VerificationService) GetVerificationForUser(ctx context.Context, userID uuid.UUID) (models.UserVerificationRecord, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.UserVerificationRecord{}, ErrUserNotFound
		}
		return models.UserVerificationRecord{}, err
	}
	return s.GetUserVerification(ctx, user.ID, user.Role)
}

// OverrideDocumentStatus applies a reviewer decision. The reviewer's role is
// checked against the stored account, not just the token.
func (s *VerificationService) OverrideDocumentStatus(ctx context.Context, docID uuid.UUID, newStatus models.DocumentStatus, reviewerID uuid.UUID, reason string) (*models.UploadedDocument, error) {
	reviewer, err := s.userRepo.GetByID(ctx, reviewerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, kyc.ErrReviewerUnauthorized
		}
		return nil, err
	}
	if !reviewer.Role.IsReviewer() {
		s.logger.Warn("Override attempted without reviewer role",
			zap.String("user_id", reviewerID.String()),
			zap.String("role", string(reviewer.Role)),
			zap.String("document_id", docID.String()),
		)
		return nil, kyc.ErrReviewerUnauthorized
	}
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", kyc.ErrInvalidStatus, newStatus)
	}

	doc, err := s.docRepo.UpdateReview(ctx, docID, newStatus, reviewer.ID, sanitizeText(reason), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, kyc.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	s.logger.Info("Document status overridden",
		zap.String("document_id", doc.ID.String()),
		zap.String("reviewer_id", reviewer.ID.String()),
		zap.String("status", string(newStatus)),
	)
	if s.metrics != nil {
		s.metrics.IncrementOverrides(string(newStatus))
	}

	s.notifyDocument(doc)

	owner, err := s.userRepo.GetByID(ctx, doc.UserID)
	if err != nil {
		s.logger.Error("Failed to load document owner for re-aggregation",
			zap.Error(err),
			zap.String("user_id", doc.UserID.String()),
		)
		return doc, nil
	}
	if _, err := s.refreshVerification(ctx, owner); err != nil {
		s.logger.Error("Failed to re-aggregate verification", zap.Error(err))
	}

	return doc, nil
}

// ListDocuments lists a user's documents, newest first.
func (s *VerificationService) ListDocuments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.UploadedDocument, error) {
	return s.docRepo.ListByUserID(ctx, userID, limit, offset)
}

// GetDocument returns a document visible to the requester: its owner or a
// reviewer. Anyone else gets ErrDocumentNotFound.
func (s *VerificationService) GetDocument(ctx context.Context, requesterID uuid.UUID, requesterRole models.Role, docID uuid.UUID) (*models.UploadedDocument, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, kyc.ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.UserID != requesterID && !requesterRole.IsReviewer() {
		return nil, kyc.ErrDocumentNotFound
	}
	return doc, nil
}

// DocumentFile returns the stored upload of a document visible to the
// requester, with its mime type.
func (s *VerificationService) DocumentFile(ctx context.Context, requesterID uuid.UUID, requesterRole models.Role, docID uuid.UUID) (string, string, error) {
	doc, err := s.GetDocument(ctx, requesterID, requesterRole, docID)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.uploadDir, doc.ID.String()+extensionFor(doc.MimeType)), doc.MimeType, nil
}

// refreshVerification recomputes the aggregate for user and stores the new
// kyc_status when it changed. A failed cache write is logged, not returned:
// the document itself is already stored and the aggregate is recomputed on
// every read.
func (s *VerificationService) refreshVerification(ctx context.Context, user *models.User) (models.UserVerificationRecord, error) {
	record, err := s.GetUserVerification(ctx, user.ID, user.Role)
	if err != nil {
		return models.UserVerificationRecord{}, err
	}
	if record.KYCStatus == user.KYCStatus {
		return record, nil
	}

	if err := s.userRepo.UpdateKYCStatus(ctx, user.ID, record.KYCStatus); err != nil {
		s.logger.Error("Failed to store kyc status",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
	}

	s.logger.Info("KYC status changed",
		zap.String("user_id", user.ID.String()),
		zap.String("from", string(user.KYCStatus)),
		zap.String("to", string(record.KYCStatus)),
	)
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(user.ID, notify.TemplateKYCStatusChanged, map[string]string{
			"previous_status": string(user.KYCStatus),
			"kyc_status":      string(record.KYCStatus),
			"progress":        strconv.FormatFloat(record.Progress, 'f', 0, 64),
		})
	}
	user.KYCStatus = record.KYCStatus

	return record, nil
}

func (s *VerificationService) notifyDocument(doc *models.UploadedDocument) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(doc.UserID, notify.TemplateDocumentStatus, map[string]string{
		"document_id":   doc.ID.String(),
		"document_type": string(doc.Type),
		"status":        string(doc.Status),
	})
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case kyc.MimeJPEG:
		return ".jpg"
	case kyc.MimePNG:
		return ".png"
	case kyc.MimePDF:
		return ".pdf"
	}
	return ""
}
