package handler

import (
	reportapp "github.com/erp/pos/internal/application/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles sales and hire-purchase reports
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetSalesSummary godoc
// @Summary      Sales summary
// @Description  Totals, payment method split and best selling products for a date range. end_date is inclusive.
// @Tags         reports
// @Produce      json
// @Param        start_date query string true "First day (YYYY-MM-DD)"
// @Param        end_date query string true "Last day (YYYY-MM-DD)"
// @Param        top_n query int false "Number of top products" default(10)
// @Success      200 {object} dto.Response{data=report.SalesSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/sales/summary [get]
func (h *ReportHandler) GetSalesSummary(c *gin.Context) {
	var filter reportapp.SalesReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	summary, err := h.reportService.GetSalesSummary(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetInstallmentAging godoc
// @Summary      Installment aging
// @Description  Unpaid installments of active agreements grouped by days past due
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "Reference day (YYYY-MM-DD), defaults to today"
// @Success      200 {object} dto.Response{data=report.InstallmentAging}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/hire-purchase/aging [get]
func (h *ReportHandler) GetInstallmentAging(c *gin.Context) {
	var filter reportapp.AgingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	aging, err := h.reportService.GetInstallmentAging(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, aging)
}
