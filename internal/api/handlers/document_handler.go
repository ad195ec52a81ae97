package handlers

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"agro-kyc/internal/dto"
	"agro-kyc/internal/kyc"
	"agro-kyc/internal/models"
	"agro-kyc/internal/service"
	"agro-kyc/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

type DocumentHandler struct {
	verificationService *service.VerificationService
	logger              *zap.Logger
}

func NewDocumentHandler(verificationService *service.VerificationService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		verificationService: verificationService,
		logger:              logger,
	}
}

// SubmitDocument godoc
// @Summary Submit a KYC document
// @Description Upload an identity, address or business document. It is preprocessed, read by OCR, validated, fraud-scored and resolved synchronously.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (JPEG, PNG or PDF, up to 10 MB)"
// @Param type formData string true "identity, proof_of_address, driver_license, vehicle_registration, business_registration or other"
// @Security Bearer
// @Success 201 {object} dto.SubmitDocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /api/v1/documents [post]
func (h *DocumentHandler) SubmitDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	docTypeStr := c.FormValue("type")
	if docTypeStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Type is required",
		})
	}
	docType, ok := models.ParseDocumentType(docTypeStr)
	if !ok {
		return respondError(c, h.logger, fmt.Errorf("%w: %q", kyc.ErrInvalidDocumentType, docTypeStr), "")
	}

	declared := file.Header.Get("Content-Type")
	if declared == "" || declared == "application/octet-stream" {
		declared = mime.TypeByExtension(filepath.Ext(file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	result, err := h.verificationService.SubmitDocument(c.Context(), userID, docType, data, file.Filename, declared)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to process document")
	}

	resp := dto.SubmitDocumentResponse{Document: *dto.NewDocumentResponse(result.Document)}
	if result.Verification != nil {
		verification := dto.NewVerificationResponse(*result.Verification)
		resp.Verification = &verification
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListDocuments godoc
// @Summary List user's documents
// @Description Get the caller's uploaded documents, newest first
// @Tags documents
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.DocumentListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 10)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > maxPageSize {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.verificationService.ListDocuments(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	responses := make([]*dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = dto.NewDocumentResponse(doc)
	}

	return c.JSON(dto.DocumentListResponse{
		Documents: responses,
		Limit:     limit,
		Offset:    offset,
	})
}

// GetDocument godoc
// @Summary Get a document
// @Description Get one document with its validation and fraud results. Owners and reviewers only.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.verificationService.GetDocument(c.Context(), userID, getRole(c), documentID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get document")
	}

	return c.JSON(dto.NewDocumentResponse(doc))
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func getRole(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(middleware.LocalRole).(string)
	return models.Role(role)
}

// GetDocumentFile godoc
// @Summary Download the uploaded file
// @Description Returns the original upload. Owners and reviewers only.
// @Tags documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/file [get]
func (h *DocumentHandler) GetDocumentFile(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	path, mimeType, err := h.verificationService.DocumentFile(c.Context(), userID, getRole(c), documentID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get document file")
	}

	c.Set(fiber.HeaderContentType, mimeType)
	return c.SendFile(path)
}
