package pagination

import (
	"testing"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeAuditCursor(t *testing.T) {
	tests := []struct {
		name   string
		cursor domain.AuditCursor
	}{
		{
			name:   "nanosecond precision",
			cursor: domain.AuditCursor{CreatedAt: time.Date(2026, 5, 15, 14, 30, 45, 123456789, time.UTC), AuditID: "0b6f7c1e-8f7a-4b9e-9d3c-2f1a5e6d7c8b"},
		},
		{
			name:   "zero time",
			cursor: domain.AuditCursor{AuditID: "a"},
		},
		{
			name:   "non UTC input",
			cursor: domain.AuditCursor{CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600)), AuditID: "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := EncodeAuditCursor(tt.cursor)
			assert.NotEmpty(t, token)
			assert.NotContains(t, token, "+")
			assert.NotContains(t, token, "/")

			decoded, err := DecodeAuditCursor(token)
			require.NoError(t, err)
			assert.True(t, tt.cursor.CreatedAt.Equal(decoded.CreatedAt))
			assert.Equal(t, tt.cursor.AuditID, decoded.AuditID)
		})
	}
}

func TestDecodeAuditCursorErrors(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{name: "not base64", token: "this is not base64!", wantMsg: "base64 decode"},
		{name: "missing separator", token: EncodeMultiFieldToken("2026-05-15T00:00:00Z"), wantMsg: "split"},
		{name: "extra field", token: EncodeMultiFieldToken("2026-05-15T00:00:00Z", "a", "b"), wantMsg: "split"},
		{name: "empty id", token: EncodeMultiFieldToken("2026-05-15T00:00:00Z", ""), wantMsg: "split"},
		{name: "bad time", token: EncodeMultiFieldToken("notadate", "a"), wantMsg: "created_at parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAuditCursor(tt.token)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMultiFieldToken(t *testing.T) {
	token := EncodeMultiFieldToken("a", "b", "c")
	fields, err := DecodeMultiFieldToken(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, fields)
}
