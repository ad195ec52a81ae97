package handlers

import (
	"errors"
	"reflect"
	"strings"

	"agro-kyc/internal/kyc"
	"agro-kyc/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateBody parses a JSON body and validates it. It writes the 400
// response itself and returns false when the request is unusable.
func validateBody(c *fiber.Ctx, req interface{}) bool {
	if err := c.BodyParser(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
		return false
	}
	if err := validate.Struct(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Invalid request body"
	}

	fe := validationErrs[0]
	field := fe.Field()
	switch fe.ActualTag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "oneof":
		return field + " must be one of [" + fe.Param() + "]"
	}
	return field + " is invalid"
}

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, kyc.ErrOversizeUpload):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, kyc.ErrUnsupportedFormat),
		errors.Is(err, kyc.ErrInvalidStatus),
		errors.Is(err, kyc.ErrUnknownRole),
		errors.Is(err, kyc.ErrInvalidDocumentType):
		return fiber.StatusBadRequest
	case errors.Is(err, kyc.ErrReviewerUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, kyc.ErrDocumentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// respondError writes err with its mapped status. Client errors carry the
// error text so the user can correct the request; server errors are logged
// and replaced by fallback.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, fallback string) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
		return c.Status(code).JSON(fiber.Map{
			"error": fallback,
		})
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
