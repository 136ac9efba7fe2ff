package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/giftway/internal/companyctx"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
)

type createStoreRequest struct {
	CompanyID string `json:"company_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// @Summary      Create Store
// @Description  Register a store under a company
// @Tags         stores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createStoreRequest true "Create Store Request"
// @Success      200  {object}  storedomain.Store
// @Router       /stores [post]
func (s *Server) CreateStore(c *gin.Context) {
	var req createStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	companyID, err := s.companyIDForRequest(c, req.CompanyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	store, err := s.storeSvc.Create(c.Request.Context(), storedomain.CreateRequest{
		CompanyID: companyID,
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": store})
}

// @Summary      List Stores
// @Description  List stores scoped to the caller's company
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Company ID (admin only)"
// @Param        active      query  bool    false  "Active"
// @Success      200  {object}  []storedomain.Store
// @Router       /stores [get]
func (s *Server) ListStores(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	companyID, err := s.companyIDForRequest(c, c.Query("company_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stores, err := s.storeSvc.List(c.Request.Context(), storedomain.ListRequest{
		CompanyID: companyID,
		Active:    active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stores})
}

// @Summary      Get Store
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Store ID"
// @Success      200  {object}  storedomain.Store
// @Router       /stores/{id} [get]
func (s *Server) GetStore(c *gin.Context) {
	store, err := s.storeSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": store})
}

// @Summary      Update Store
// @Tags         stores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                    true  "Store ID"
// @Param        request  body  storedomain.UpdateRequest true  "Update Store Request"
// @Success      200  {object}  storedomain.Store
// @Router       /stores/{id} [patch]
func (s *Server) UpdateStore(c *gin.Context) {
	var req storedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	store, err := s.storeSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": store})
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

// @Summary      Authorize Phone
// @Description  Whitelist a phone number for webhook activation at a store
// @Tags         stores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string        true  "Store ID"
// @Param        request  body  phoneRequest  true  "Phone"
// @Success      200  {object}  storedomain.AuthorizedPhone
// @Router       /stores/{id}/phones [post]
func (s *Server) AuthorizePhone(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	phone, err := s.storeSvc.AuthorizePhone(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Phone))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": phone})
}

// @Summary      Revoke Phone
// @Description  Remove a phone number from a store's activation whitelist
// @Tags         stores
// @Accept       json
// @Security     BearerAuth
// @Param        id       path  string        true  "Store ID"
// @Param        request  body  phoneRequest  true  "Phone"
// @Success      200
// @Router       /stores/{id}/phones [delete]
func (s *Server) RevokePhone(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.storeSvc.RevokePhone(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Phone)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      List Authorized Phones
// @Tags         stores
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Store ID"
// @Success      200  {object}  []storedomain.AuthorizedPhone
// @Router       /stores/{id}/phones [get]
func (s *Server) ListAuthorizedPhones(c *gin.Context) {
	phones, err := s.storeSvc.ListAuthorizedPhones(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": phones})
}

// companyIDForRequest resolves the company a request operates on: the
// authenticated company context when present, otherwise an explicit id
// supplied by an admin.
func (s *Server) companyIDForRequest(c *gin.Context, explicit string) (snowflake.ID, error) {
	if id, ok := companyctx.CompanyID(c.Request.Context()); ok {
		return snowflake.ID(id), nil
	}
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return 0, storedomain.ErrMissingCompanyID
	}
	id, err := snowflake.ParseString(explicit)
	if err != nil {
		return 0, storedomain.ErrInvalidCompany
	}
	return id, nil
}
