package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrEmptySelection),
		errors.Is(err, apperrors.ErrCurrencyMismatch),
		errors.Is(err, apperrors.ErrUnknownTransactionType):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUnknownCharge),
		errors.Is(err, apperrors.ErrInvoiceNotDraft),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrStaleResponse),
		errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUpstreamTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Internal errors are logged and
// replaced by fallback so no internals leak to the client.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := statusForError(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	default:
		logger.Warn(fallback, slog.String("error", err.Error()), slog.Int("status", status))
	}

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = fallback
	case http.StatusGatewayTimeout:
		msg = "Billing backend timed out, please retry"
	case http.StatusBadGateway:
		msg = "Billing backend error: " + msg
	}
	c.JSON(status, gin.H{"error": msg})
}
