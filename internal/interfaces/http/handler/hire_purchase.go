package handler

import (
	"context"
	"net/http"

	financingapp "github.com/erp/pos/internal/application/financing"
	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/infrastructure/printing"
	"github.com/gin-gonic/gin"
)

// AgreementRenderer renders a hire-purchase agreement as HTML
type AgreementRenderer interface {
	RenderAgreement(ctx context.Context, agreement *financing.HirePurchaseAgreement) (string, error)
}

// HirePurchaseHandler handles hire-purchase agreements
type HirePurchaseHandler struct {
	BaseHandler
	service  *financingapp.HirePurchaseService
	renderer AgreementRenderer
	pdf      salesapp.PDFRenderer
}

// NewHirePurchaseHandler creates a new HirePurchaseHandler.
// renderer and pdf may be nil, in which case schedule printing reports RECEIPTS_DISABLED.
func NewHirePurchaseHandler(service *financingapp.HirePurchaseService, renderer AgreementRenderer, pdf salesapp.PDFRenderer) *HirePurchaseHandler {
	return &HirePurchaseHandler{service: service, renderer: renderer, pdf: pdf}
}

// Create godoc
// @Summary      Finance the session cart
// @Description  Creates a hire-purchase agreement from the cart. The monthly payment is the financed amount plus flat interest, divided by the term.
// @Description  Like checkout, the stock writes and cart removal are not undone if a later step fails.
// @Tags         hire-purchase
// @Accept       json
// @Produce      json
// @Param        session_id path string true "Till session ID"
// @Param        Idempotency-Key header string false "Client submission key"
// @Param        request body financingapp.CreateAgreementRequest true "Customer and terms"
// @Success      201 {object} dto.Response{data=financingapp.AgreementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /carts/{session_id}/hire-purchase [post]
func (h *HirePurchaseHandler) Create(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req financingapp.CreateAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	agreement, err := h.service.CreateFromCart(c.Request.Context(), c.Param("session_id"), req, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, agreement)
}

// GetByID godoc
// @Summary      Get agreement by ID
// @Tags         hire-purchase
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      200 {object} dto.Response{data=financingapp.AgreementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /hire-purchase/{id} [get]
func (h *HirePurchaseHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "agreement")
	if !ok {
		return
	}

	agreement, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// List godoc
// @Summary      List agreements
// @Tags         hire-purchase
// @Produce      json
// @Param        status query string false "Agreement status" Enums(active, completed, defaulted)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]financingapp.AgreementResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /hire-purchase [get]
func (h *HirePurchaseHandler) List(c *gin.Context) {
	var filter financingapp.AgreementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := filter.ToDomain()
	h.SuccessWithMeta(c, list, total, page.Page, page.PageSize)
}

// RecordPayment godoc
// @Summary      Record an installment payment
// @Description  Settles the earliest unpaid installment. Paying the last one completes the agreement.
// @Tags         hire-purchase
// @Accept       json
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Param        request body financingapp.RecordPaymentRequest false "Payment time, defaults to now"
// @Success      200 {object} dto.Response{data=financingapp.AgreementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /hire-purchase/{id}/payments [post]
func (h *HirePurchaseHandler) RecordPayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "agreement")
	if !ok {
		return
	}

	var req financingapp.RecordPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	agreement, err := h.service.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// MarkDefaulted godoc
// @Summary      Mark an agreement defaulted
// @Tags         hire-purchase
// @Produce      json
// @Param        id path string true "Agreement ID" format(uuid)
// @Success      200 {object} dto.Response{data=financingapp.AgreementResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /hire-purchase/{id}/default [post]
func (h *HirePurchaseHandler) MarkDefaulted(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "agreement")
	if !ok {
		return
	}

	agreement, err := h.service.MarkDefaulted(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, agreement)
}

// PrintSchedule godoc
// @Summary      Print an agreement
// @Description  Returns the agreement with its repayment schedule as HTML, or as an A4 PDF with format=pdf
// @Tags         hire-purchase
// @Produce      html
// @Produce      application/pdf
// @Param        id path string true "Agreement ID" format(uuid)
// @Param        format query string false "Output format" Enums(html, pdf) default(html)
// @Success      200 {file} file "Agreement"
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      501 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /hire-purchase/{id}/print [get]
func (h *HirePurchaseHandler) PrintSchedule(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "agreement")
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "html")
	if format != "html" && format != "pdf" {
		h.BadRequest(c, "format must be html or pdf")
		return
	}
	if h.renderer == nil || (format == "pdf" && h.pdf == nil) {
		h.HandleDomainError(c, salesapp.ErrReceiptsDisabled)
		return
	}

	ctx := c.Request.Context()
	agreement, err := h.service.Find(ctx, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	html, err := h.renderer.RenderAgreement(ctx, agreement)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if format == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}
	pdf, err := h.pdf.RenderPDF(ctx, html, printing.PaperA4)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="agreement-`+agreement.AgreementNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
