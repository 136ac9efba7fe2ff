package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
)

// @Summary      Create Company
// @Description  Register a billed company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body companydomain.CreateRequest true "Create Company Request"
// @Success      200  {object}  companydomain.Company
// @Router       /companies [post]
func (s *Server) CreateCompany(c *gin.Context) {
	var req companydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.companySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": company})
}

// @Summary      List Companies
// @Description  List billed companies
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        active  query  bool  false  "Active"
// @Success      200  {object}  []companydomain.Company
// @Router       /companies [get]
func (s *Server) ListCompanies(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	companies, err := s.companySvc.List(c.Request.Context(), companydomain.ListRequest{Active: active})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": companies})
}

// @Summary      Get Company
// @Description  Get company by ID
// @Tags         companies
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Company ID"
// @Success      200  {object}  companydomain.Company
// @Router       /companies/{id} [get]
func (s *Server) GetCompany(c *gin.Context) {
	company, err := s.companySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": company})
}

// @Summary      Update Company
// @Description  Update company settings
// @Tags         companies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                      true  "Company ID"
// @Param        request  body  companydomain.UpdateRequest true  "Update Company Request"
// @Success      200  {object}  companydomain.Company
// @Router       /companies/{id} [patch]
func (s *Server) UpdateCompany(c *gin.Context) {
	var req companydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	company, err := s.companySvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": company})
}
