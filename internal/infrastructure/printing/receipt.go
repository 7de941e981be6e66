package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/financing"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

// StoreInfo is printed at the top of every document
type StoreInfo struct {
	Name    string
	Address string
	Phone   string
}

// ReceiptTemplates renders sales and agreements with locale-aware number formatting
type ReceiptTemplates struct {
	store    StoreInfo
	lang     language.Tag
	printer  *message.Printer
	location *time.Location
	tmpl     *template.Template
}

// NewReceiptTemplates parses the embedded templates. An unknown locale falls back to English.
func NewReceiptTemplates(store StoreInfo, locale string) *ReceiptTemplates {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	r := &ReceiptTemplates{
		store:    store,
		lang:     tag,
		printer:  message.NewPrinter(tag),
		location: time.Local,
	}
	r.tmpl = template.Must(template.New("receipts").Funcs(r.funcs()).ParseFS(templateFS, "templates/*.html"))
	return r
}

func (r *ReceiptTemplates) funcs() template.FuncMap {
	caser := cases.Title(r.lang)
	return template.FuncMap{
		"money":   r.money,
		"percent": r.percent,
		"date": func(t time.Time) string {
			return t.In(r.location).Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			return t.In(r.location).Format("2006-01-02 15:04")
		},
		"title": func(s any) string {
			return caser.String(strings.ReplaceAll(fmt.Sprint(s), "_", " "))
		},
		"positive": func(d decimal.Decimal) bool { return d.IsPositive() },
	}
}

// money formats an amount with two decimals and the locale's separators
func (r *ReceiptTemplates) money(d decimal.Decimal) string {
	return r.printer.Sprint(number.Decimal(d.Round(sales.MoneyPlaces).InexactFloat64(), number.Scale(sales.MoneyPlaces)))
}

// percent formats a discount percentage, dropping trailing zeros
func (r *ReceiptTemplates) percent(d decimal.Decimal) string {
	return d.String() + "%"
}

type saleView struct {
	Store StoreInfo
	Sale  *sales.SaleRecord
}

type agreementView struct {
	Store     StoreInfo
	Agreement *financing.HirePurchaseAgreement
}

// RenderSale renders the customer receipt of a sale
func (r *ReceiptTemplates) RenderSale(_ context.Context, sale *sales.SaleRecord) (string, error) {
	if sale == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "sale is nil", nil)
	}
	return r.execute("sale_receipt.html", saleView{Store: r.store, Sale: sale})
}

// RenderAgreement renders a hire-purchase agreement with its repayment schedule
func (r *ReceiptTemplates) RenderAgreement(_ context.Context, agreement *financing.HirePurchaseAgreement) (string, error) {
	if agreement == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "agreement is nil", nil)
	}
	return r.execute("agreement_schedule.html", agreementView{Store: r.store, Agreement: agreement})
}

func (r *ReceiptTemplates) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}
