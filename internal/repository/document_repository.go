package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agro-kyc/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var documentColumns = []string{
	"id", "user_id", "type", "file_name", "file_size", "file_url", "mime_type",
	"extracted_text", "ocr_confidence", "validation", "fraud_assessment", "status",
	"reviewed_by", "reviewed_at", "review_notes", "created_at", "updated_at",
}

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.UploadedDocument) error {
	validation, err := json.Marshal(doc.Validation)
	if err != nil {
		return fmt.Errorf("marshal validation: %w", err)
	}
	fraud, err := json.Marshal(doc.FraudAssessment)
	if err != nil {
		return fmt.Errorf("marshal fraud assessment: %w", err)
	}

	query := squirrel.Insert("documents").
		Columns(documentColumns...).
		Values(
			doc.ID, doc.UserID, doc.Type, doc.FileName, doc.FileSize, doc.FileURL, doc.MimeType,
			doc.ExtractedText, doc.OCRConfidence, validation, fraud, doc.Status,
			doc.ReviewedBy, doc.ReviewedAt, doc.ReviewNotes, doc.UploadedAt, doc.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

// ListByUserID returns one page of a user's documents, newest first.
func (r *DocumentRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.UploadedDocument, error) {
	return r.list(ctx, pageByUserQuery(userID, limit, offset))
}

// ListAllByUserID returns every document of a user in upload order.
func (r *DocumentRepository) ListAllByUserID(ctx context.Context, userID uuid.UUID) ([]*models.UploadedDocument, error) {
	return r.list(ctx, allByUserQuery(userID))
}

// seq breaks created_at ties so "latest of a type" is stable across reads.
func pageByUserQuery(userID uuid.UUID, limit, offset int) squirrel.SelectBuilder {
	return squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "seq DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)
}

func allByUserQuery(userID uuid.UUID) squirrel.SelectBuilder {
	return squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC", "seq ASC").
		PlaceholderFormat(squirrel.Dollar)
}

// UpdateReview sets status and review fields in a single statement and
// returns the updated row.
func (r *DocumentRepository) UpdateReview(ctx context.Context, id uuid.UUID, status models.DocumentStatus, reviewerID uuid.UUID, notes string, reviewedAt time.Time) (*models.UploadedDocument, error) {
	query := squirrel.Update("documents").
		Set("status", status).
		Set("reviewed_by", reviewerID).
		Set("reviewed_at", reviewedAt).
		Set("review_notes", notes).
		Set("updated_at", reviewedAt).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(documentColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (r *DocumentRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.UploadedDocument, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.UploadedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}

	return documents, rows.Err()
}

func scanDocument(row pgx.Row) (*models.UploadedDocument, error) {
	var (
		doc        models.UploadedDocument
		validation []byte
		fraud      []byte
	)
	if err := row.Scan(
		&doc.ID, &doc.UserID, &doc.Type, &doc.FileName, &doc.FileSize, &doc.FileURL, &doc.MimeType,
		&doc.ExtractedText, &doc.OCRConfidence, &validation, &fraud, &doc.Status,
		&doc.ReviewedBy, &doc.ReviewedAt, &doc.ReviewNotes, &doc.UploadedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(validation) > 0 {
		if err := json.Unmarshal(validation, &doc.Validation); err != nil {
			return nil, fmt.Errorf("unmarshal validation: %w", err)
		}
	}
	if len(fraud) > 0 {
		if err := json.Unmarshal(fraud, &doc.FraudAssessment); err != nil {
			return nil, fmt.Errorf("unmarshal fraud assessment: %w", err)
		}
	}
	if doc.Validation.MatchedRules == nil {
		doc.Validation.MatchedRules = []string{}
	}

	return &doc, nil
}
