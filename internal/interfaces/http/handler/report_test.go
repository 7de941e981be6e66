package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/erp/pos/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportHandler_SalesSummary(t *testing.T) {
	f := newFixture(t)
	checkoutWorkedCart(t, f)

	today := time.Now().Format("2006-01-02")
	w := f.do(http.MethodGet, "/api/v1/reports/sales/summary?start_date="+today+"&end_date="+today, nil)
	assertStatus(t, w, http.StatusOK)

	var summary report.SalesSummary
	decode(t, w, &summary)
	assert.Equal(t, int64(1), summary.TotalOrders)
	assert.Equal(t, int64(3), summary.ItemsSold)
	assert.True(t, dec("24.50").Equal(summary.NetAmount), summary.NetAmount.String())
	assert.True(t, dec("14.50").Equal(summary.OnAccountAmount), summary.OnAccountAmount.String())
	require.NotEmpty(t, summary.TopProducts)
	assert.Equal(t, "Notebook", summary.TopProducts[0].ProductName)
}

func TestReportHandler_SalesSummary_BadRange(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"missing dates", "", "VALIDATION_ERROR"},
		{"end before start", "?start_date=2026-03-10&end_date=2026-03-01", "INVALID_DATE_RANGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodGet, "/api/v1/reports/sales/summary"+tt.query, nil)
			assertStatus(t, w, http.StatusBadRequest)
			assert.Equal(t, tt.code, decode(t, w, nil).Error.Code)
		})
	}
}

func TestReportHandler_InstallmentAging(t *testing.T) {
	f := newFixture(t)
	financeTelevision(t, f)

	asOf := time.Now().AddDate(0, 3, 1).Format("2006-01-02")
	w := f.do(http.MethodGet, "/api/v1/reports/hire-purchase/aging?as_of="+asOf, nil)
	assertStatus(t, w, http.StatusOK)

	var aging report.InstallmentAging
	decode(t, w, &aging)
	assert.Equal(t, 1, aging.AgreementsActive)
	assert.True(t, dec("1050").Equal(aging.TotalOutstanding), aging.TotalOutstanding.String())

	var installments int
	for _, line := range aging.Lines {
		installments += line.Installments
	}
	assert.Equal(t, 10, installments)
}
