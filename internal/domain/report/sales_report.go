package report

import (
	"sort"
	"time"

	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesSummary provides aggregated sales statistics for a period
type SalesSummary struct {
	PeriodStart     time.Time             `json:"period_start"`
	PeriodEnd       time.Time             `json:"period_end"`
	TotalOrders     int64                 `json:"total_orders"`
	ItemsSold       int64                 `json:"items_sold"`
	GrossAmount     decimal.Decimal       `json:"gross_amount"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	NetAmount       decimal.Decimal       `json:"net_amount"`
	AvgOrderValue   decimal.Decimal       `json:"avg_order_value"`
	OnAccountAmount decimal.Decimal       `json:"on_account_amount"`
	ByPaymentMethod []PaymentMethodTotal  `json:"by_payment_method"`
	TopProducts     []ProductSalesRanking `json:"top_products"`
}

// PaymentMethodTotal is the net amount taken by one payment method
type PaymentMethodTotal struct {
	Method     sales.PaymentMethod `json:"method"`
	OrderCount int64               `json:"order_count"`
	Amount     decimal.Decimal     `json:"amount"`
}

// ProductSalesRanking represents one row of the product ranking
type ProductSalesRanking struct {
	Rank        int             `json:"rank"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	OrderCount  int64           `json:"order_count"`
}

// SummarizeSales aggregates sale records. Products are ranked by net amount,
// ties broken by quantity and then name; topN <= 0 keeps every product.
func SummarizeSales(records []sales.SaleRecord, start, end time.Time, topN int) SalesSummary {
	summary := SalesSummary{
		PeriodStart:     start,
		PeriodEnd:       end,
		GrossAmount:     decimal.Zero,
		DiscountAmount:  decimal.Zero,
		NetAmount:       decimal.Zero,
		AvgOrderValue:   decimal.Zero,
		OnAccountAmount: decimal.Zero,
	}

	methods := make(map[sales.PaymentMethod]*PaymentMethodTotal)
	products := make(map[uuid.UUID]*ProductSalesRanking)

	for i := range records {
		s := &records[i]
		summary.TotalOrders++
		summary.ItemsSold += int64(s.ItemCount())
		summary.GrossAmount = summary.GrossAmount.Add(s.Subtotal)
		summary.DiscountAmount = summary.DiscountAmount.Add(s.DiscountTotal())
		summary.NetAmount = summary.NetAmount.Add(s.Total)
		summary.OnAccountAmount = summary.OnAccountAmount.Add(s.Payment.Account)

		method := s.Payment.Method()
		m, ok := methods[method]
		if !ok {
			m = &PaymentMethodTotal{Method: method, Amount: decimal.Zero}
			methods[method] = m
		}
		m.OrderCount++
		m.Amount = m.Amount.Add(s.Total)

		for _, item := range s.Items {
			p, ok := products[item.ProductID]
			if !ok {
				p = &ProductSalesRanking{ProductID: item.ProductID, ProductName: item.Name, Amount: decimal.Zero}
				products[item.ProductID] = p
			}
			p.Quantity += int64(item.Quantity)
			p.Amount = p.Amount.Add(item.Amount)
			p.OrderCount++
		}
	}

	if summary.TotalOrders > 0 {
		summary.AvgOrderValue = summary.NetAmount.Div(decimal.NewFromInt(summary.TotalOrders)).Round(sales.MoneyPlaces)
	}

	summary.ByPaymentMethod = make([]PaymentMethodTotal, 0, len(methods))
	for _, m := range methods {
		summary.ByPaymentMethod = append(summary.ByPaymentMethod, *m)
	}
	sort.Slice(summary.ByPaymentMethod, func(i, j int) bool {
		return summary.ByPaymentMethod[i].Method < summary.ByPaymentMethod[j].Method
	})

	ranking := make([]ProductSalesRanking, 0, len(products))
	for _, p := range products {
		ranking = append(ranking, *p)
	}
	sort.Slice(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ProductName < b.ProductName
	})
	if topN > 0 && len(ranking) > topN {
		ranking = ranking[:topN]
	}
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	summary.TopProducts = ranking

	return summary
}
