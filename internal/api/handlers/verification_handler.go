package handlers

import (
	"agro-kyc/internal/dto"
	"agro-kyc/internal/models"
	"agro-kyc/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VerificationHandler struct {
	verificationService *service.VerificationService
	logger              *zap.Logger
}

func NewVerificationHandler(verificationService *service.VerificationService, logger *zap.Logger) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		logger:              logger,
	}
}

// GetVerification godoc
// @Summary Get own KYC status
// @Description Aggregate the caller's documents against the requirements of their role
// @Tags verification
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.VerificationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/verification [get]
func (h *VerificationHandler) GetVerification(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	record, err := h.verificationService.GetUserVerification(c.Context(), userID, getRole(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get verification")
	}

	return c.JSON(dto.NewVerificationResponse(record))
}

// GetUserVerification godoc
// @Summary Get a user's KYC status
// @Description Reviewer view of any user's verification record
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Security Bearer
// @Success 200 {object} dto.VerificationResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/admin/users/{id}/verification [get]
func (h *VerificationHandler) GetUserVerification(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	record, err := h.verificationService.GetVerificationForUser(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get verification")
	}

	return c.JSON(dto.NewVerificationResponse(record))
}

// ReviewDocument godoc
// @Summary Override a document status
// @Description Reviewer decision on a document; the owner's KYC status is recomputed
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body dto.ReviewDocumentRequest true "Review decision"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/admin/documents/{id}/review [post]
func (h *VerificationHandler) ReviewDocument(c *fiber.Ctx) error {
	reviewerID, err := getUserID(c)
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

	var req dto.ReviewDocumentRequest
	if !validateBody(c, &req) {
		return nil
	}

	doc, err := h.verificationService.OverrideDocumentStatus(c.Context(), documentID, models.DocumentStatus(req.Status), reviewerID, req.Reason)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to review document")
	}

	return c.JSON(dto.NewDocumentResponse(doc))
}
