package handler

import (
	"net/http"

	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/gin-gonic/gin"
)

// SaleHandler handles recorded sales
type SaleHandler struct {
	BaseHandler
	saleService *salesapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *salesapp.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// List godoc
// @Summary      List sales
// @Description  Newest first. The to date is inclusive.
// @Tags         sales
// @Produce      json
// @Param        from query string false "First day (YYYY-MM-DD)"
// @Param        to query string false "Last day (YYYY-MM-DD)"
// @Param        status query string false "Settlement status" Enums(pending, paid, overdue)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]salesapp.SaleResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	var filter salesapp.SaleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	sales, total, err := h.saleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := filter.ToDomain()
	h.SuccessWithMeta(c, sales, total, page.Page, page.PageSize)
}

// GetByID godoc
// @Summary      Get sale by ID
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id", "sale")
	if !ok {
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sale)
}

// UpdateStatus godoc
// @Summary      Update sale status
// @Description  Changes the settlement status. No other field of the sale is modified.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body salesapp.UpdateSaleStatusRequest true "New status"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/status [put]
func (h *SaleHandler) UpdateStatus(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id", "sale")
	if !ok {
		return
	}

	var req salesapp.UpdateSaleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	sale, err := h.saleService.UpdateStatus(c.Request.Context(), saleID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sale)
}

// Receipt godoc
// @Summary      Print a sale receipt
// @Description  Returns the receipt as HTML, or as an 80mm PDF with format=pdf
// @Tags         sales
// @Produce      html
// @Produce      application/pdf
// @Param        id path string true "Sale ID" format(uuid)
// @Param        format query string false "Output format" Enums(html, pdf) default(html)
// @Success      200 {file} file "Receipt"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      501 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id", "sale")
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "html") {
	case "html":
		html, err := h.saleService.ReceiptHTML(c.Request.Context(), saleID)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	case "pdf":
		pdf, err := h.saleService.ReceiptPDF(c.Request.Context(), saleID)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		c.Header("Content-Disposition", `inline; filename="receipt-`+saleID.String()+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	default:
		h.BadRequest(c, "format must be html or pdf")
	}
}
