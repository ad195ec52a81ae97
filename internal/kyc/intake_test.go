package kyc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUpload(t *testing.T) {
	pngData := pngFixture(t, 8, 8)

	tests := []struct {
		name     string
		data     []byte
		declared string
		maxBytes int64
		wantMime string
		wantErr  error
	}{
		{name: "png", data: pngData, declared: "image/png", wantMime: MimePNG},
		{name: "pdf", data: pdfFixture, declared: "application/pdf", wantMime: MimePDF},
		{name: "declared with parameters", data: pngData, declared: "Image/PNG; charset=binary", wantMime: MimePNG},
		{name: "gif not allowed", data: []byte("GIF89a...."), declared: "image/gif", wantErr: ErrUnsupportedFormat},
		{name: "content contradicts declared type", data: pngData, declared: "image/jpeg", wantErr: ErrUnsupportedFormat},
		{name: "empty file", data: nil, declared: "image/png", wantErr: ErrUnsupportedFormat},
		{name: "over limit", data: pngData, declared: "image/png", maxBytes: int64(len(pngData) - 1), wantErr: ErrOversizeUpload},
		{name: "exactly at limit", data: pngData, declared: "image/png", maxBytes: int64(len(pngData)), wantMime: MimePNG},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CheckUpload(tc.data, tc.declared, tc.maxBytes)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMime, got)
		})
	}
}

func TestCheckUploadOversizeBeforeFormat(t *testing.T) {
	big := bytes.Repeat([]byte{0}, 15<<20)

	_, err := CheckUpload(big, "image/gif", DefaultMaxUploadBytes)
	assert.ErrorIs(t, err, ErrOversizeUpload)
}

func TestNormalizeMimeType(t *testing.T) {
	assert.Equal(t, MimeJPEG, NormalizeMimeType("image/jpg"))
	assert.Equal(t, MimeJPEG, NormalizeMimeType("image/pjpeg"))
	assert.Equal(t, MimePDF, NormalizeMimeType(" APPLICATION/PDF "))
	assert.True(t, IsImage(MimePNG))
	assert.False(t, IsImage(MimePDF))
}
