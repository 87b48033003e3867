// Package pagination encodes opaque page tokens for cursor based listings.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

const (
	timeFormat = time.RFC3339Nano // Use a precise time format
	separator  = "|"
)

// EncodeMultiFieldToken creates a URL safe token from any number of string fields.
func EncodeMultiFieldToken(fields ...string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, separator)))
}

// DecodeMultiFieldToken decodes a token into its component fields.
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page token (base64 decode): %v", apperrors.ErrValidation, err)
	}
	return strings.Split(string(decodedBytes), separator), nil
}

// EncodeAuditCursor creates the page token that resumes an audit listing after c.
func EncodeAuditCursor(c domain.AuditCursor) string {
	return EncodeMultiFieldToken(c.CreatedAt.UTC().Format(timeFormat), c.AuditID)
}

// DecodeAuditCursor parses a token created by EncodeAuditCursor.
func DecodeAuditCursor(token string) (domain.AuditCursor, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return domain.AuditCursor{}, err
	}
	if len(parts) != 2 || parts[1] == "" {
		return domain.AuditCursor{}, fmt.Errorf("%w: invalid page token (split)", apperrors.ErrValidation)
	}

	createdAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return domain.AuditCursor{}, fmt.Errorf("%w: invalid page token (created_at parse): %v", apperrors.ErrValidation, err)
	}
	return domain.AuditCursor{CreatedAt: createdAt, AuditID: parts[1]}, nil
}
