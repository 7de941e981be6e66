// Package printing renders sale receipts and hire-purchase schedules as HTML
// and converts them to PDF through headless Chrome.
//
//	receipts := printing.NewReceiptTemplates(printing.StoreInfo{Name: "Corner Shop"}, "en")
//	html, err := receipts.RenderSale(ctx, sale)
//	pdf, err := renderer.RenderPDF(ctx, html)
package printing
