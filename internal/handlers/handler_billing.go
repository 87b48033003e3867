package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/billing_backoffice/internal/core/ports/services"
	"github.com/SscSPs/billing_backoffice/internal/dto"
	"github.com/SscSPs/billing_backoffice/internal/middleware"
	"github.com/gin-gonic/gin"
)

// billingHandler handles HTTP requests of the billing back office.
type billingHandler struct {
	billingService  portssvc.BillingSvcFacade
	lifecycle       *billing.ChargeLifecycle
	locale          string
	defaultCurrency string
}

// BillingHandlerOption configures the billing handler.
type BillingHandlerOption func(*billingHandler)

// WithDisplayLocale sets the locale used for formatted amounts.
func WithDisplayLocale(locale string) BillingHandlerOption {
	return func(h *billingHandler) {
		if locale != "" {
			h.locale = locale
		}
	}
}

// WithRequestCurrency sets the currency assumed when a request omits one.
func WithRequestCurrency(code string) BillingHandlerOption {
	return func(h *billingHandler) {
		if code != "" {
			h.defaultCurrency = strings.ToUpper(code)
		}
	}
}

// newBillingHandler creates a new billingHandler.
func newBillingHandler(bs portssvc.BillingSvcFacade, opts ...BillingHandlerOption) *billingHandler {
	h := &billingHandler{
		billingService:  bs,
		lifecycle:       billing.NewChargeLifecycle(),
		locale:          "en-US",
		defaultCurrency: "USD",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterBillingRoutes registers the account scoped billing routes on rg.
func RegisterBillingRoutes(rg *gin.RouterGroup, billingService portssvc.BillingSvcFacade, opts ...BillingHandlerOption) {
	h := newBillingHandler(billingService, opts...)

	accounts := rg.Group("/accounts/:accountID")
	{
		accounts.GET("/charges", h.listCharges)
		accounts.GET("/charges/uninvoiced", h.listUninvoicedCharges)
		accounts.POST("/charges/cancel", h.cancelCharges)

		accounts.GET("/recurring-charges", h.listRecurringCharges)
		accounts.POST("/recurring-charges/delete", h.deleteRecurringCharges)

		accounts.GET("/invoices", h.listInvoices)
		accounts.POST("/invoices", h.createInvoice)
		accounts.POST("/invoices/:invoiceID/merge", h.mergeIntoInvoice)

		accounts.GET("/transactions", h.getTransactionHistory)
		accounts.POST("/credit", h.adjustBalance(domain.AdjustCredit))
		accounts.POST("/debit", h.adjustBalance(domain.AdjustDebit))
		accounts.POST("/payments", h.directPayment)

		accounts.GET("/audit", h.listAuditEntries)
	}

	registerSelectionRoutes(accounts, h)
}

// requestScope reads the operator and account of a request. It writes the
// error response itself and reports false when the request cannot proceed.
func requestScope(c *gin.Context) (operatorID, accountID string, logger *slog.Logger, ok bool) {
	logger = middleware.GetLoggerFromCtx(c.Request.Context())
	operatorID, found := middleware.GetOperatorIDFromContext(c)
	if !found {
		logger.Error("Operator ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", logger, false
	}
	accountID = strings.TrimSpace(c.Param("accountID"))
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account ID is required"})
		return "", "", logger, false
	}
	return operatorID, accountID, logger.With(slog.String("account_id", accountID)), true
}

// listCharges godoc
// @Summary Load the charges listing
// @Description Reloads the account's charges and returns them with the operator's selection. Selected charges that are no longer listed are dropped from the selection.
// @Tags charges
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param status query string false "Charge status filter" Enums(UNPAID, PAID, VOID, REFUNDED, CREDITED, PENDING, CANCELED)
// @Param invoiced query bool false "Only invoiced (true) or uninvoiced (false) charges"
// @Success 200 {object} dto.ChargeListingResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 409 {object} map[string]string "Superseded by a newer reload"
// @Failure 502 {object} map[string]string "Billing backend error"
// @Failure 504 {object} map[string]string "Billing backend timed out"
// @Security BearerAuth
// @Router /accounts/{accountID}/charges [get]
func (h *billingHandler) listCharges(c *gin.Context) {
	operatorID, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}

	var filter domain.ChargeFilter
	if raw := c.Query("status"); raw != "" {
		status := domain.ChargeStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown charge status: " + raw})
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("invoiced"); raw != "" {
		invoiced, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'invoiced' query parameter"})
			return
		}
		filter.Invoiced = &invoiced
	}

	listing, err := h.billingService.LoadCharges(c.Request.Context(), operatorID, accountID, filter)
	if err != nil {
		respondError(c, logger, err, "Failed to load charges")
		return
	}
	c.JSON(http.StatusOK, dto.ToChargeListingResponse(listing, h.lifecycle, h.locale))
}

// listUninvoicedCharges godoc
// @Summary Load the uninvoiced charges listing
// @Description Reloads the charges not yet on an invoice. Invoices are created from the selection on this listing.
// @Tags charges
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Success 200 {object} dto.ChargeListingResponse
// @Failure 409 {object} map[string]string "Superseded by a newer reload"
// @Failure 502 {object} map[string]string "Billing backend error"
// @Failure 504 {object} map[string]string "Billing backend timed out"
// @Security BearerAuth
// @Router /accounts/{accountID}/charges/uninvoiced [get]
func (h *billingHandler) listUninvoicedCharges(c *gin.Context) {
	operatorID, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	listing, err := h.billingService.LoadUninvoicedCharges(c.Request.Context(), operatorID, accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to load uninvoiced charges")
		return
	}
	c.JSON(http.StatusOK, dto.ToChargeListingResponse(listing, h.lifecycle, h.locale))
}

// cancelCharges godoc
// @Summary Cancel charges
// @Description Cancels the given charges, or the operator's selection on the charges listing when none are given. Each charge succeeds or fails on its own.
// @Tags charges
// @Accept json
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param request body dto.CancelChargesRequest false "Charges to cancel"
// @Success 200 {object} dto.BulkResultResponse "Every charge canceled"
// @Success 207 {object} dto.BulkResultResponse "Some charges failed"
// @Failure 400 {object} map[string]string "Nothing selected"
// @Security BearerAuth
// @Router /accounts/{accountID}/charges/cancel [post]
func (h *billingHandler) cancelCharges(c *gin.Context) {
	operatorID, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.CancelChargesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for CancelCharges", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	result, err := h.billingService.CancelCharges(c.Request.Context(), operatorID, accountID, req.ChargeIDs)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel charges")
		return
	}
	c.JSON(bulkStatus(result), dto.ToBulkResultResponse(result))
}

// listRecurringCharges godoc
// @Summary List recurring charges
// @Tags recurring-charges
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Success 200 {array} dto.RecurringChargeResponse
// @Failure 502 {object} map[string]string "Billing backend error"
// @Failure 504 {object} map[string]string "Billing backend timed out"
// @Security BearerAuth
// @Router /accounts/{accountID}/recurring-charges [get]
func (h *billingHandler) listRecurringCharges(c *gin.Context) {
	_, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	charges, err := h.billingService.ListRecurringCharges(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, logger, err, "Failed to list recurring charges")
		return
	}
	c.JSON(http.StatusOK, dto.ToRecurringChargeResponses(charges, h.locale))
}

// deleteRecurringCharges godoc
// @Summary Delete recurring charges
// @Description Stops the given recurring charge schedules. Each one succeeds or fails on its own.
// @Tags recurring-charges
// @Accept json
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param request body dto.DeleteRecurringChargesRequest true "Recurring charges to delete"
// @Success 200 {object} dto.BulkResultResponse "Every schedule deleted"
// @Success 207 {object} dto.BulkResultResponse "Some deletions failed"
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /accounts/{accountID}/recurring-charges/delete [post]
func (h *billingHandler) deleteRecurringCharges(c *gin.Context) {
	operatorID, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.DeleteRecurringChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DeleteRecurringCharges", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.billingService.DeleteRecurringCharges(c.Request.Context(), operatorID, accountID, req.RecurringChargeIDs)
	if err != nil {
		respondError(c, logger, err, "Failed to delete recurring charges")
		return
	}
	c.JSON(bulkStatus(result), dto.ToBulkResultResponse(result))
}

func bulkStatus(result *domain.BulkResult) int {
	if len(result.Failed) > 0 {
		return http.StatusMultiStatus
	}
	return http.StatusOK
}

// listInvoices godoc
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param status query string false "Invoice status filter" Enums(DRAFT, OPEN, PAID, OVERDUE)
// @Success 200 {array} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 502 {object} map[string]string "Billing backend error"
// @Security BearerAuth
// @Router /accounts/{accountID}/invoices [get]
func (h *billingHandler) listInvoices(c *gin.Context) {
	_, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	var status *domain.InvoiceStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.InvoiceStatus(strings.ToUpper(raw))
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown invoice status: " + raw})
			return
		}
		status = &s
	}

	invoices, err := h.billingService.ListInvoices(c.Request.Context(), accountID, status)
	if err != nil {
		respondError(c, logger, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponses(invoices, h.locale))
}

// createInvoice godoc
// @Summary Create an invoice from the selection
// @Description Creates a draft invoice holding the charges selected on the uninvoiced listing.
// @Tags invoices
// @Accept json
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param request body dto.CreateInvoiceRequest true "Business details"
// @Success 201 {object} dto.InvoiceCreatedResponse
// @Failure 400 {object} map[string]string "Invalid input or nothing selected"
// @Failure 409 {object} map[string]string "Selection no longer matches the listing"
// @Failure 502 {object} map[string]string "Billing backend error"
// @Security BearerAuth
// @Router /accounts/{accountID}/invoices [post]
func (h *billingHandler) createInvoice(c *gin.Context) {
	operatorID, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	created, err := h.billingService.CreateInvoiceFromSelection(c.Request.Context(), operatorID, accountID, req.ToBusinessDetails())
	if err != nil {
		respondError(c, logger, err, "Failed to create invoice")
		return
	}
	logger.Info("Invoice created", slog.String("invoice_id", created.InvoiceID))
	c.JSON(http.StatusCreated, dto.ToInvoiceCreatedResponse(created, h.locale))
}

// mergeIntoInvoice godoc
// @Summary Merge the selection into a draft invoice
// @Tags invoices
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param invoiceID path string true "Draft invoice ID"
// @Success 200 {object} dto.ChargesMergedResponse
// @Failure 400 {object} map[string]string "Nothing selected"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice is not a draft"
// @Security BearerAuth
// @Router /accounts/{accountID}/invoices/{invoiceID}/merge [post]
func (h *billingHandler) mergeIntoInvoice(c *gin.Context) {
	operatorID, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	invoiceID := c.Param("invoiceID")
	logger = logger.With(slog.String("invoice_id", invoiceID))

	merged, err := h.billingService.MergeSelectionIntoInvoice(c.Request.Context(), operatorID, accountID, invoiceID)
	if err != nil {
		respondError(c, logger, err, "Failed to merge charges into invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ChargesMergedResponse{InvoiceID: merged.InvoiceID, ChargeIDs: merged.ChargeIDs})
}

// getTransactionHistory godoc
// @Summary Grouped transaction history
// @Description Returns the ledger grouped into period buckets with labels. Running balance discrepancies are reported, never corrected.
// @Tags transactions
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param bucket query string false "Bucket period" Enums(monthly, weekly, daily) default(monthly)
// @Param types query string false "Comma separated transaction types to keep"
// @Success 200 {object} dto.TransactionHistoryResponse
// @Failure 400 {object} map[string]string "Invalid bucket or type"
// @Failure 502 {object} map[string]string "Billing backend error"
// @Security BearerAuth
// @Router /accounts/{accountID}/transactions [get]
func (h *billingHandler) getTransactionHistory(c *gin.Context) {
	_, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	bucket, err := billing.ParseBucketPeriod(c.Query("bucket"))
	if err != nil {
		respondError(c, logger, err, "Invalid bucket")
		return
	}
	var names []string
	for _, raw := range c.QueryArray("types") {
		names = append(names, strings.Split(raw, ",")...)
	}
	types, err := billing.ParseTransactionTypes(names)
	if err != nil {
		respondError(c, logger, err, "Invalid transaction type filter")
		return
	}

	history, err := h.billingService.GetTransactionHistory(c.Request.Context(), accountID, bucket, types)
	if err != nil {
		respondError(c, logger, err, "Failed to load transaction history")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionHistoryResponse(history, h.locale))
}

// adjustBalance godoc
// @Summary Credit or debit an account
// @Tags transactions
// @Accept json
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param request body dto.AdjustBalanceRequest true "Adjustment"
// @Success 204 "Adjustment recorded"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 502 {object} map[string]string "Billing backend error"
// @Security BearerAuth
// @Router /accounts/{accountID}/credit [post]
// @Router /accounts/{accountID}/debit [post]
func (h *billingHandler) adjustBalance(direction domain.AdjustmentDirection) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID, accountID, logger, ok := requestScope(c)
		if !ok {
			return
		}
		var req dto.AdjustBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for AdjustBalance", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
		amount, err := domain.MoneyFromDecimal(req.Amount, h.currencyOr(req.Currency))
		if err != nil {
			respondError(c, logger, err, "Invalid amount")
			return
		}

		if err := h.billingService.AdjustBalance(c.Request.Context(), operatorID, accountID, direction, amount, req.Comment); err != nil {
			respondError(c, logger, err, "Failed to adjust balance")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// directPayment godoc
// @Summary Take a card payment
// @Description Charges a card on behalf of the customer, optionally against specific charges. Card details are forwarded and never stored.
// @Tags transactions
// @Accept json
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param request body dto.DirectPaymentRequest true "Payment"
// @Success 201 {object} dto.DirectPaymentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Unknown charge"
// @Failure 502 {object} map[string]string "Billing backend error"
// @Security BearerAuth
// @Router /accounts/{accountID}/payments [post]
func (h *billingHandler) directPayment(c *gin.Context) {
	operatorID, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	var req dto.DirectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// the binding error may echo card fields, so it is not logged
		logger.Warn("Failed to bind JSON for DirectPayment")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	amount, err := domain.MoneyFromDecimal(req.Amount, h.currencyOr(req.Currency))
	if err != nil {
		respondError(c, logger, err, "Invalid amount")
		return
	}

	txID, err := h.billingService.DirectPayment(c.Request.Context(), operatorID, accountID, amount, req.ChargeIDs, req.ToCardDetails(), req.ToBillingAddress())
	if err != nil {
		respondError(c, logger, err, "Failed to take payment")
		return
	}
	c.JSON(http.StatusCreated, dto.DirectPaymentResponse{TransactionID: txID})
}

// listAuditEntries godoc
// @Summary Audit trail of an account
// @Description Lists the mutations operators dispatched for the account, newest first. Follow nextPageToken for older entries.
// @Tags audit
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param limit query int false "Maximum entries (default 50, max 500)"
// @Param pageToken query string false "Token from a previous page"
// @Success 200 {object} dto.AuditPageResponse
// @Failure 400 {object} map[string]string "Invalid limit or page token"
// @Security BearerAuth
// @Router /accounts/{accountID}/audit [get]
func (h *billingHandler) listAuditEntries(c *gin.Context) {
	_, accountID, logger, ok := requestScope(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' query parameter"})
			return
		}
		limit = n
	}

	page, err := h.billingService.ListAuditEntries(c.Request.Context(), accountID, limit, c.Query("pageToken"))
	if err != nil {
		respondError(c, logger, err, "Failed to list audit entries")
		return
	}
	c.JSON(http.StatusOK, dto.ToAuditPageResponse(page))
}

func (h *billingHandler) currencyOr(code string) string {
	if code == "" {
		return h.defaultCurrency
	}
	return code
}
