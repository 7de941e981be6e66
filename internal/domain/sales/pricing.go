package sales

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MoneyPlaces is the number of decimal places money is presented and stored with
const MoneyPlaces = 2

// Subtotal returns Σ price × quantity
func Subtotal(lines []CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Gross())
	}
	return sum
}

// LineDiscountTotal returns Σ price × quantity × discount / 100
func LineDiscountTotal(lines []CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Discount())
	}
	return sum
}

// Total applies the overall discount to the amount left after line discounts
func Total(lines []CartLine, overallDiscountPercent decimal.Decimal) decimal.Decimal {
	afterLines := Subtotal(lines).Sub(LineDiscountTotal(lines))
	factor := decimal.NewFromInt(1).Sub(overallDiscountPercent.Div(hundred))
	return afterLines.Mul(factor)
}

// Change is what the customer gets back; negative means underpaid
func Change(paid, total decimal.Decimal) decimal.Decimal {
	return paid.Sub(total)
}

// Totals is the priced breakdown of a cart, rounded to MoneyPlaces
type Totals struct {
	Subtotal               decimal.Decimal
	LineDiscountTotal      decimal.Decimal
	AfterLineDiscounts     decimal.Decimal
	OverallDiscountPercent decimal.Decimal
	OverallDiscountAmount  decimal.Decimal
	Total                  decimal.Decimal
	ItemCount              int
}

// Summarize prices a cart
func Summarize(c *Cart) Totals {
	subtotal := Subtotal(c.Lines)
	lineDiscounts := LineDiscountTotal(c.Lines)
	afterLines := subtotal.Sub(lineDiscounts)
	total := Total(c.Lines, c.OverallDiscountPercent)

	return Totals{
		Subtotal:               RoundMoney(subtotal),
		LineDiscountTotal:      RoundMoney(lineDiscounts),
		AfterLineDiscounts:     RoundMoney(afterLines),
		OverallDiscountPercent: c.OverallDiscountPercent,
		OverallDiscountAmount:  RoundMoney(afterLines.Sub(total)),
		Total:                  RoundMoney(total),
		ItemCount:              c.ItemCount(),
	}
}

// RoundMoney rounds half away from zero to MoneyPlaces
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
