package repository

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentListQueriesBreakTimestampTies(t *testing.T) {
	userID := uuid.New()

	sql, args, err := allByUserQuery(userID).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "ORDER BY created_at ASC, seq ASC"), sql)
	assert.Equal(t, []interface{}{userID}, args)

	sql, _, err = pageByUserQuery(userID, 10, 20).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY created_at DESC, seq DESC LIMIT 10 OFFSET 20")
	assert.Contains(t, sql, "WHERE user_id = $1")
}
