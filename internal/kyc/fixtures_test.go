package kyc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	identityText = "REPUBLICA FEDERATIVA DO BRASIL CARTEIRA DE IDENTIDADE\n" +
		"NOME JOAO DA SILVA\nDATA DE NASCIMENTO 01/02/1980\nCPF 123.456.789-09"
	addressText = "CONTA DE ENERGIA ELETRICA - FATURA\nTITULAR: JOAO DA SILVA\n" +
		"ENDERECO: RUA DAS FLORES 123\nCEP 01310-100 SAO PAULO\nEMISSAO 05/03/2024"
	sampleIdentityText = identityText + "\nFILIACAO MARIA DA SILVA\nSAMPLE DOCUMENT"
)

// pngFixture renders a small grey gradient so the preprocessor has real pixels
// to work with.
func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(80 + (x*90)/w)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var pdfFixture = []byte("%PDF-1.4\n%fixture\n")

type fakeRecognizer struct {
	text       string
	confidence float64
	err        error
	delay      time.Duration
	calls      int
	languages  []string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, _ []byte, languages []string) (Recognition, error) {
	f.calls++
	f.languages = languages
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Recognition{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Recognition{}, f.err
	}
	return Recognition{Text: f.text, Confidence: f.confidence}, nil
}

type fakeRasterizer struct {
	pages []Page
	err   error
}

func (f *fakeRasterizer) Pages(context.Context, []byte) ([]Page, error) {
	return f.pages, f.err
}
