package kyc

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimePDF  = "application/pdf"

	// DefaultMaxUploadBytes is the upload limit enforced before preprocessing.
	DefaultMaxUploadBytes = 10 << 20
)

// NormalizeMimeType lower-cases a declared mime type and drops parameters.
func NormalizeMimeType(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(declared))
	}
	if mt == "image/jpg" || mt == "image/pjpeg" {
		mt = MimeJPEG
	}
	return mt
}

// IsImage reports whether a normalized mime type is one of the accepted images.
func IsImage(mimeType string) bool {
	return mimeType == MimeJPEG || mimeType == MimePNG
}

// CheckUpload is the hard gate in front of the pipeline. It rejects
// oversize uploads, mime types outside the allow-list and content that
// contradicts its declared type. The returned mime type is normalized.
func CheckUpload(data []byte, declared string, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit is %d bytes", ErrOversizeUpload, len(data), maxBytes)
	}

	mimeType := NormalizeMimeType(declared)
	switch mimeType {
	case MimeJPEG, MimePNG, MimePDF:
	default:
		return "", fmt.Errorf("%w: %q (accepted: image/jpeg, image/png, application/pdf)", ErrUnsupportedFormat, declared)
	}

	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
	}

	sniffed := NormalizeMimeType(http.DetectContentType(data))
	if sniffed != mimeType {
		return "", fmt.Errorf("%w: declared %s but content is %s", ErrUnsupportedFormat, mimeType, sniffed)
	}

	return mimeType, nil
}
