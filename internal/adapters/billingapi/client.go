// Package billingapi talks to the billing backend over HTTP/JSON. Every call
// runs under the same timeout, and responses are validated and mapped onto
// domain types before they are returned.
package billingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	"github.com/SscSPs/billing_backoffice/internal/middleware"
	"github.com/SscSPs/billing_backoffice/internal/observability/metrics"
	"github.com/go-playground/validator/v10"
)

// DefaultTimeout bounds every backend call unless configured otherwise.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 4 << 10

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client is the HTTP implementation of gateways.BillingBackend.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	validate   *validator.Validate
	metrics    *metrics.Metrics
}

var _ gateways.BillingBackend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-call time budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records call counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid billing API base URL %q", apperrors.ErrValidation, baseURL)
	}
	c := &Client{
		baseURL:    u.String(),
		token:      token,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func accountPath(accountID string, parts ...string) string {
	segments := append([]string{"accounts", url.PathEscape(accountID)}, parts...)
	for i := 2; i < len(segments); i++ {
		segments[i] = url.PathEscape(segments[i])
	}
	return "/" + strings.Join(segments, "/")
}

// ListCharges implements gateways.BillingReader.
func (c *Client) ListCharges(ctx context.Context, accountID string, filter domain.ChargeFilter) ([]domain.Charge, error) {
	q := url.Values{}
	if filter.Status != nil {
		q.Set("status", string(*filter.Status))
	}
	if filter.Invoiced != nil {
		q.Set("invoiced", strconv.FormatBool(*filter.Invoiced))
	}
	return getList(ctx, c, "list_charges", accountPath(accountID, "charges"), q, wireCharge.toDomain)
}

// ListRecurringCharges implements gateways.BillingReader.
func (c *Client) ListRecurringCharges(ctx context.Context, accountID string) ([]domain.RecurringCharge, error) {
	return getList(ctx, c, "list_recurring_charges", accountPath(accountID, "recurring-charges"), nil, wireRecurringCharge.toDomain)
}

// ListInvoices implements gateways.BillingReader.
func (c *Client) ListInvoices(ctx context.Context, accountID string, status *domain.InvoiceStatus) ([]domain.Invoice, error) {
	q := url.Values{}
	if status != nil {
		q.Set("status", string(*status))
	}
	return getList(ctx, c, "list_invoices", accountPath(accountID, "invoices"), q, wireInvoice.toDomain)
}

// ListTransactions implements gateways.BillingReader.
func (c *Client) ListTransactions(ctx context.Context, accountID string, groupingHint string) ([]domain.Transaction, error) {
	q := url.Values{}
	if groupingHint != "" {
		q.Set("group_by", groupingHint)
	}
	return getList(ctx, c, "list_transactions", accountPath(accountID, "transactions"), q, wireTransaction.toDomain)
}

// CreateInvoice implements gateways.BillingWriter.
func (c *Client) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (string, error) {
	var created wireCreated
	if err := c.do(ctx, "create_invoice", http.MethodPost, accountPath(req.AccountID, "invoices"), nil, toWireCreateInvoice(req), &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// MergeCharges implements gateways.BillingWriter.
func (c *Client) MergeCharges(ctx context.Context, req domain.MergeChargesRequest) error {
	path := accountPath(req.AccountID, "invoices", req.InvoiceID, "charges")
	return c.do(ctx, "merge_charges", http.MethodPost, path, nil, wireMergeCharges{ChargeIDs: req.ChargeIDs}, nil)
}

// CancelCharge implements gateways.BillingWriter.
func (c *Client) CancelCharge(ctx context.Context, accountID, chargeID string) error {
	return c.do(ctx, "cancel_charge", http.MethodPost, accountPath(accountID, "charges", chargeID, "cancel"), nil, nil, nil)
}

// DeleteRecurringCharge implements gateways.BillingWriter.
func (c *Client) DeleteRecurringCharge(ctx context.Context, accountID, recurringChargeID string) error {
	return c.do(ctx, "delete_recurring_charge", http.MethodDelete, accountPath(accountID, "recurring-charges", recurringChargeID), nil, nil, nil)
}

// AdjustBalance implements gateways.BillingWriter.
func (c *Client) AdjustBalance(ctx context.Context, req domain.BalanceAdjustmentRequest) error {
	body := wireAdjustment{
		Direction: string(req.Direction),
		Amount:    toWireMoney(req.Amount),
		Comment:   req.Comment,
	}
	return c.do(ctx, "adjust_balance", http.MethodPost, accountPath(req.AccountID, "adjustments"), nil, body, nil)
}

// DirectPayment implements gateways.BillingWriter.
func (c *Client) DirectPayment(ctx context.Context, req domain.DirectPaymentRequest) (string, error) {
	var result wirePaymentResult
	if err := c.do(ctx, "direct_payment", http.MethodPost, accountPath(req.AccountID, "payments"), nil, toWirePayment(req), &result); err != nil {
		return "", err
	}
	return result.TransactionID, nil
}

// getList fetches a list of W, validates every element and maps it to D.
// One malformed element fails the whole call.
func getList[W any, D any](ctx context.Context, c *Client, operation, path string, query url.Values, toDomain func(W) (D, error)) ([]D, error) {
	var items []W
	if err := c.do(ctx, operation, http.MethodGet, path, query, nil, &items); err != nil {
		return nil, err
	}
	out := make([]D, 0, len(items))
	for i, item := range items {
		if err := c.validate.Struct(item); err != nil {
			return nil, fmt.Errorf("%s: %w: element %d: %v", operation, apperrors.ErrUpstream, i, err)
		}
		mapped, err := toDomain(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: element %d: %v", operation, apperrors.ErrUpstream, i, err)
		}
		out = append(out, mapped)
	}
	return out, nil
}

// do performs one backend call under the client timeout. out, when non-nil,
// receives the envelope's data member and is validated if it is a struct.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body any, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveBackendCall(operation, resultLabel(err), time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if key, ok := gateways.IdempotencyKey(ctx); ok && method != http.MethodGet {
		req.Header.Set("Idempotency-Key", key)
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Debug("Calling billing backend", slog.String("operation", operation), slog.String("method", method), slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeFailure(operation, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if ctx.Err() != nil {
			return classifyTransportError(ctx, operation, err)
		}
		return fmt.Errorf("%s: %w: decoding response: %v", operation, apperrors.ErrUpstream, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s: %w: response has no data", operation, apperrors.ErrUpstream)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: %w: decoding data: %v", operation, apperrors.ErrUpstream, err)
	}
	if err := c.validateStruct(out); err != nil {
		return fmt.Errorf("%s: %w: %v", operation, apperrors.ErrUpstream, err)
	}
	return nil
}

func (c *Client) validateStruct(v any) error {
	err := c.validate.Struct(v)
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// Not a struct, e.g. a list validated element by element in getList.
		return nil
	}
	return err
}

func classifyTransportError(ctx context.Context, operation string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", operation, apperrors.ErrUpstreamTimeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s: %w: %v", operation, apperrors.ErrUpstream, err)
}

func decodeFailure(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env envelope
	message := strings.TrimSpace(string(raw))
	code := ""
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		message = env.Error.Message
		code = env.Error.Code
	}

	sentinel := errorFromCode(code)
	switch {
	case sentinel != nil:
	case resp.StatusCode == http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case resp.StatusCode == http.StatusGatewayTimeout:
		sentinel = apperrors.ErrUpstreamTimeout
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		sentinel = apperrors.ErrValidation
	default:
		sentinel = apperrors.ErrUpstream
	}
	return fmt.Errorf("%s: %w: status %d: %s", operation, sentinel, resp.StatusCode, message)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	}
	return "error"
}
