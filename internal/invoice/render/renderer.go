package render

import "time"

// RenderInput is the deterministic input used for invoice rendering.
type RenderInput struct {
	Brand   BrandView
	Invoice InvoiceView
	Company CompanyView
	Items   []LineItemView
}

type BrandView struct {
	Name         string
	LogoURL      string
	FooterNotes  string
	PrimaryColor string
	FontFamily   string
}

type InvoiceView struct {
	Number          string
	Status          string
	PeriodStart     *time.Time
	PeriodEnd       *time.Time
	TotalSalesCents int64
	CommissionRate  float64
	CommissionCents int64
	TotalCents      int64
	Currency        string
	PaidAt          *time.Time
}

type CompanyView struct {
	Name  string
	TaxID string
}

type LineItemView struct {
	Description string
	Quantity    int64
	UnitPrice   int64
	TotalPrice  int64
}

type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}
