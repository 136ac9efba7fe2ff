package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/giftway/internal/invoice/domain"
	"github.com/smallbiznis/giftway/internal/invoice/render"
)

// @Summary      Generate Invoice
// @Description  Roll pending activations into a new invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body invoicedomain.GenerateRequest true "Generate Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/generate [post]
func (s *Server) GenerateInvoice(c *gin.Context) {
	var req invoicedomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.GenerateInvoice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// @Summary      Create Manual Invoice
// @Description  Create an invoice from hand-entered line items
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body invoicedomain.CreateRequest true "Create Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// @Summary      List Invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Company ID"
// @Param        status      query  string  false  "Status"
// @Success      200  {object}  []invoicedomain.Invoice
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	invoices, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListRequest{
		CompanyID: strings.TrimSpace(c.Query("company_id")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

// @Summary      Get Invoice
// @Description  Get an invoice with its line items
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id} [get]
func (s *Server) GetInvoice(c *gin.Context) {
	invoice, items, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice, "items": items})
}

type markPaidRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// @Summary      Mark Invoice Paid
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string           true   "Invoice ID"
// @Param        request  body  markPaidRequest  false  "Payment time"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id}/pay [post]
func (s *Server) MarkInvoicePaid(c *gin.Context) {
	var req markPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	var paidAt time.Time
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	invoice, err := s.invoiceSvc.MarkAsPaid(c.Request.Context(), c.Param("id"), paidAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Cancel Invoice
// @Description  Cancel an invoice and release its activations for rebilling
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                true  "Invoice ID"
// @Param        request  body  cancelInvoiceRequest  true  "Reason"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id}/cancel [post]
func (s *Server) CancelInvoice(c *gin.Context) {
	var req cancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.CancelInvoice(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// @Summary      Render Invoice
// @Description  Render an invoice as printable HTML
// @Tags         invoices
// @Produce      html
// @Security     BearerAuth
// @Param        id  path  string  true  "Invoice ID"
// @Success      200  {string}  string
// @Router       /invoices/{id}/html [get]
func (s *Server) RenderInvoiceHTML(c *gin.Context) {
	invoice, items, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	company, err := s.companySvc.Get(c.Request.Context(), invoice.CompanyID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	lines := make([]render.LineItemView, 0, len(items))
	for _, item := range items {
		lines = append(lines, render.LineItemView{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPriceCents,
			TotalPrice:  item.TotalPriceCents,
		})
	}

	periodStart := invoice.PeriodStart
	periodEnd := invoice.PeriodEnd
	html, err := s.renderer.RenderHTML(render.RenderInput{
		Invoice: render.InvoiceView{
			Number:          invoice.Number,
			Status:          invoice.Status,
			PeriodStart:     &periodStart,
			PeriodEnd:       &periodEnd,
			TotalSalesCents: invoice.TotalSalesCents,
			CommissionRate:  invoice.CommissionRate,
			CommissionCents: invoice.CommissionCents,
			TotalCents:      invoice.TotalCents,
			Currency:        invoice.Currency,
			PaidAt:          invoice.PaidAt,
		},
		Company: render.CompanyView{
			Name:  company.Name,
			TaxID: company.TaxID,
		},
		Items: lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
