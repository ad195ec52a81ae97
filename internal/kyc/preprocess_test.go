package kyc

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	_ "image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessImage(t *testing.T) {
	data := pngFixture(t, 64, 32)
	original := append([]byte(nil), data...)

	out, err := NewPreprocessor().Process(data, MimePNG)
	require.NoError(t, err)

	assert.Equal(t, MimeJPEG, out.MimeType)
	assert.Equal(t, original, data, "input must not be mutated")

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestPreprocessDownscalesLargeImages(t *testing.T) {
	p := NewPreprocessor()
	p.MaxDimension = 100

	out, err := p.Process(pngFixture(t, 400, 200), MimePNG)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestPreprocessStretchesContrast(t *testing.T) {
	p := NewPreprocessor()
	p.Sharpen = 0

	out, err := p.Process(pngFixture(t, 100, 10), MimePNG)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)

	// The fixture spans grey 80..170; after stretching the extremes reach
	// close to black and white.
	darkest, brightest := uint32(0xffff), uint32(0)
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		r, _, _, _ := img.At(x, b.Min.Y+5).RGBA()
		if r < darkest {
			darkest = r
		}
		if r > brightest {
			brightest = r
		}
	}
	assert.Less(t, darkest>>8, uint32(30))
	assert.Greater(t, brightest>>8, uint32(225))
}

func TestPreprocessPDFPassThrough(t *testing.T) {
	out, err := NewPreprocessor().Process(pdfFixture, MimePDF)
	require.NoError(t, err)
	assert.Equal(t, MimePDF, out.MimeType)
	assert.Equal(t, pdfFixture, out.Data)
}

func TestPreprocessCorruptImage(t *testing.T) {
	corrupt := append([]byte("\x89PNG\r\n\x1a\n"), []byte("not really a png")...)

	_, err := NewPreprocessor().Process(corrupt, MimePNG)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// declaredSizePNG rewrites the IHDR of a tiny PNG so its header claims w×h.
func declaredSizePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := append([]byte(nil), pngFixture(t, 1, 1)...)
	// signature(8) + length(4) + "IHDR"(4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestPreprocessRejectsOversizedDimensions(t *testing.T) {
	data := declaredSizePNG(t, 12000, 12000)

	_, err := NewPreprocessor().Process(data, MimePNG)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "12000x12000")
}

func TestPreprocessAcceptsImageAtDimensionLimit(t *testing.T) {
	p := NewPreprocessor()
	p.MaxSourceDimension = 64

	_, err := p.Process(pngFixture(t, 64, 16), MimePNG)
	assert.NoError(t, err)

	_, err = p.Process(pngFixture(t, 65, 16), MimePNG)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
