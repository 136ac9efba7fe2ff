package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/giftway/internal/catalog/domain"
)

// @Summary      Create Product
// @Description  Create a new card product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body catalogdomain.CreateProductRequest true "Create Product Request"
// @Success      200  {object}  catalogdomain.Product
// @Router       /products [post]
func (s *Server) CreateProduct(c *gin.Context) {
	var req catalogdomain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// @Summary      List Products
// @Description  List card products
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        active  query  bool  false  "Active"
// @Success      200  {object}  []catalogdomain.Product
// @Router       /products [get]
func (s *Server) ListProducts(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	products, err := s.catalogSvc.ListProducts(c.Request.Context(), active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// @Summary      Get Product
// @Description  Get product by ID
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  catalogdomain.Product
// @Router       /products/{id} [get]
func (s *Server) GetProduct(c *gin.Context) {
	product, err := s.catalogSvc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

// @Summary      Archive Product
// @Description  Archive a product so no new cards can use it
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  catalogdomain.Product
// @Router       /products/{id}/archive [post]
func (s *Server) ArchiveProduct(c *gin.Context) {
	product, err := s.catalogSvc.ArchiveProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

type addDenominationRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// @Summary      Add Denomination
// @Description  Add a fixed denomination to a product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                  true  "Product ID"
// @Param        request  body  addDenominationRequest  true  "Denomination"
// @Success      200  {object}  catalogdomain.ProductDenomination
// @Router       /products/{id}/denominations [post]
func (s *Server) AddDenomination(c *gin.Context) {
	var req addDenominationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	denom, err := s.catalogSvc.AddDenomination(c.Request.Context(), catalogdomain.AddDenominationRequest{
		ProductID:   c.Param("id"),
		AmountCents: req.AmountCents,
		Currency:    strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": denom})
}

// @Summary      List Denominations
// @Description  List the fixed denominations of a product
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  []catalogdomain.ProductDenomination
// @Router       /products/{id}/denominations [get]
func (s *Server) ListDenominations(c *gin.Context) {
	denoms, err := s.catalogSvc.ListDenominations(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": denoms})
}

func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
