package app

import (
	"context"
	"testing"
	"time"

	"agro-kyc/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryConfig(t *testing.T) *config.Config {
	return &config.Config{
		JWT:     config.JWTConfig{SecretKey: "secret", Expiration: time.Hour, RefreshExp: time.Hour},
		Storage: config.StorageConfig{Driver: "memory", UploadDir: t.TempDir(), MaxUploadBytes: 10 << 20},
		OCR:     config.OCRConfig{Provider: "tesseract", Languages: []string{"por", "eng"}, Timeout: time.Second},
	}
}

func TestNewWithMemoryStorage(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Auth)
	assert.NotNil(t, a.Verification)
	assert.NotNil(t, a.JWTManager)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Driver = "sqlite"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown storage driver")

	cfg = memoryConfig(t)
	cfg.OCR.Provider = "abbyy"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown OCR provider")

	cfg = memoryConfig(t)
	cfg.OCR.Provider = "gigachat"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "GIGACHAT_API_KEY")
}
