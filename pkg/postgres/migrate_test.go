package postgres

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesEmbedded(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.up.sql", files[0])

	content, err := fs.ReadFile(migrationsFS, "migrations/"+files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS documents")
	assert.Contains(t, string(content), "kyc_status")
}

func TestMigrationAddsDocumentSequence(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "002_documents_seq.up.sql", files[1])

	content, err := fs.ReadFile(migrationsFS, "migrations/"+files[1])
	require.NoError(t, err)
	assert.Contains(t, string(content), "ADD COLUMN IF NOT EXISTS seq BIGSERIAL")
}
