package kyc

import "errors"

var (
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrOversizeUpload       = errors.New("upload exceeds maximum size")
	ErrReviewerUnauthorized = errors.New("reviewer privilege required")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInvalidStatus        = errors.New("invalid document status")
	ErrUnknownRole          = errors.New("unknown role")
	ErrInvalidDocumentType  = errors.New("invalid document type")
)
