package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/giftway/internal/auth/domain"
)

// @Summary      Login
// @Description  Exchange staff credentials for a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body authdomain.LoginRequest true "Credentials"
// @Success      200  {object}  authdomain.LoginResponse
// @Router       /auth/login [post]
func (s *Server) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createAPIKeyRequest struct {
	CompanyID   string   `json:"company_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	TTLHours    int      `json:"ttl_hours"`
}

// @Summary      Create API Key
// @Description  Mint a machine key; the plaintext key is returned exactly once
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createAPIKeyRequest true "Create API Key Request"
// @Success      200  {object}  authdomain.CreateAPIKeyResponse
// @Router       /api-keys [post]
func (s *Server) CreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var ttl time.Duration
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	resp, err := s.authSvc.CreateAPIKey(c.Request.Context(), authdomain.CreateAPIKeyRequest{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Permissions: req.Permissions,
		TTL:         ttl,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
