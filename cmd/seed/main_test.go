package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestExpandsPasswords(t *testing.T) {
	t.Setenv("SEED_TEST_PASSWORD", "from-env-123")

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`users:
  - username: reviewer
    email: Reviewer@Example.com
    password: ${SEED_TEST_PASSWORD}
    role: admin
documents:
  - email: reviewer@example.com
    type: identity
    path: docs/id.png
`), 0644))

	manifest, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Users, 1)
	assert.Equal(t, "from-env-123", manifest.Users[0].Password)
	assert.Equal(t, "admin", manifest.Users[0].Role)
	require.Len(t, manifest.Documents, 1)
	assert.Equal(t, "docs/id.png", manifest.Documents[0].Path)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, ".seed_cache.json")

	cache, err := loadCache(cacheFile)
	require.NoError(t, err)
	assert.Empty(t, cache.ProcessedFiles)

	cache.ProcessedFiles["a.png"] = ProcessedFile{
		FilePath:    "a.png",
		FileHash:    "abc",
		DocumentID:  "doc-1",
		Status:      "approved",
		ProcessedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, saveCache(cacheFile, cache))

	loaded, err := loadCache(cacheFile)
	require.NoError(t, err)
	assert.Equal(t, cache.ProcessedFiles, loaded.ProcessedFiles)
}

func TestCalculateFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	hash, err := calculateFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", hash)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", normalizeEmail("  A@B.com "))
}
