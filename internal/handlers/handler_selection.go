package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/SscSPs/billing_backoffice/internal/dto"
	"github.com/gin-gonic/gin"
)

func registerSelectionRoutes(accounts *gin.RouterGroup, h *billingHandler) {
	selections := accounts.Group("/selections/:listing")
	{
		selections.GET("", h.getSelection)
		selections.DELETE("", h.clearSelection)
		selections.POST("/toggle", h.toggleCharge)
		selections.POST("/select-all", h.selectAllVisible)
	}
}

func (h *billingHandler) selectionScope(c *gin.Context) (operatorID, accountID string, listing domain.ListingKind, logger *slog.Logger, ok bool) {
	operatorID, accountID, logger, ok = requestScope(c)
	if !ok {
		return
	}
	listing, err := domain.ParseListingKind(c.Param("listing"))
	if err != nil {
		respondError(c, logger, err, "Unknown listing")
		return "", "", "", logger, false
	}
	return operatorID, accountID, listing, logger.With(slog.String("listing", string(listing))), true
}

// getSelection godoc
// @Summary Current selection
// @Description Returns the operator's selection on a listing with its count and total.
// @Tags selections
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param listing path string true "Listing" Enums(charges, uninvoiced)
// @Success 200 {object} dto.SelectionResponse
// @Failure 400 {object} map[string]string "Unknown listing"
// @Security BearerAuth
// @Router /accounts/{accountID}/selections/{listing} [get]
func (h *billingHandler) getSelection(c *gin.Context) {
	operatorID, accountID, listing, logger, ok := h.selectionScope(c)
	if !ok {
		return
	}
	state, err := h.billingService.GetSelection(c.Request.Context(), operatorID, accountID, listing)
	if err != nil {
		respondError(c, logger, err, "Failed to get selection")
		return
	}
	c.JSON(http.StatusOK, dto.ToSelectionResponse(state, h.locale))
}

// toggleCharge godoc
// @Summary Toggle a charge
// @Description Flips the selection of one charge of the committed listing.
// @Tags selections
// @Accept json
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param listing path string true "Listing" Enums(charges, uninvoiced)
// @Param request body dto.ToggleChargeRequest true "Charge to toggle"
// @Success 200 {object} dto.SelectionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Charge is not on the listing"
// @Security BearerAuth
// @Router /accounts/{accountID}/selections/{listing}/toggle [post]
func (h *billingHandler) toggleCharge(c *gin.Context) {
	operatorID, accountID, listing, logger, ok := h.selectionScope(c)
	if !ok {
		return
	}
	var req dto.ToggleChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ToggleCharge", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	state, err := h.billingService.ToggleCharge(c.Request.Context(), operatorID, accountID, listing, req.ChargeID)
	if err != nil {
		respondError(c, logger, err, "Failed to toggle charge")
		return
	}
	c.JSON(http.StatusOK, dto.ToSelectionResponse(state, h.locale))
}

// selectAllVisible godoc
// @Summary Select every listed charge
// @Tags selections
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param listing path string true "Listing" Enums(charges, uninvoiced)
// @Success 200 {object} dto.SelectionResponse
// @Failure 400 {object} map[string]string "Unknown listing"
// @Failure 409 {object} map[string]string "Listing not loaded"
// @Security BearerAuth
// @Router /accounts/{accountID}/selections/{listing}/select-all [post]
func (h *billingHandler) selectAllVisible(c *gin.Context) {
	operatorID, accountID, listing, logger, ok := h.selectionScope(c)
	if !ok {
		return
	}
	state, err := h.billingService.SelectAllVisible(c.Request.Context(), operatorID, accountID, listing)
	if err != nil {
		respondError(c, logger, err, "Failed to select charges")
		return
	}
	c.JSON(http.StatusOK, dto.ToSelectionResponse(state, h.locale))
}

// clearSelection godoc
// @Summary Clear the selection
// @Tags selections
// @Produce json
// @Param accountID path string true "Billing account ID"
// @Param listing path string true "Listing" Enums(charges, uninvoiced)
// @Success 200 {object} dto.SelectionResponse
// @Failure 400 {object} map[string]string "Unknown listing"
// @Security BearerAuth
// @Router /accounts/{accountID}/selections/{listing} [delete]
func (h *billingHandler) clearSelection(c *gin.Context) {
	operatorID, accountID, listing, logger, ok := h.selectionScope(c)
	if !ok {
		return
	}
	state, err := h.billingService.ClearSelection(c.Request.Context(), operatorID, accountID, listing)
	if err != nil {
		respondError(c, logger, err, "Failed to clear selection")
		return
	}
	c.JSON(http.StatusOK, dto.ToSelectionResponse(state, h.locale))
}
