package server

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/giftway/internal/auth/domain"
	"github.com/smallbiznis/giftway/internal/companyctx"
	obscontext "github.com/smallbiznis/giftway/internal/observability/context"
)

const (
	contextAuthTypeKey = "auth_type"
	contextUserIDKey   = "user_id"
	contextRoleKey     = "role"
	contextAPIKeyIDKey = "api_key_id"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired authenticates staff requests with a session token.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.authSvc.VerifyToken(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextAuthTypeKey, "session")
		c.Set(contextUserIDKey, claims.UserID)
		c.Set(contextRoleKey, claims.Role)

		ctx := obscontext.WithActor(c.Request.Context(), "user", claims.UserID)
		if claims.CompanyID != "" {
			if companyID, err := snowflake.ParseString(claims.CompanyID); err == nil {
				ctx = companyctx.WithCompanyID(ctx, int64(companyID))
			}
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole gates a route on the authenticated staff role. Admins pass
// every gate.
func (s *Server) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := c.GetString(contextRoleKey)
		if current != role && current != authdomain.RoleAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// APIKeyRequired authenticates machine requests using an API key only.
// Company identity is derived solely from the api_keys table.
func (s *Server) APIKeyRequired(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := bearerToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		record, err := s.authSvc.AuthenticateAPIKey(c.Request.Context(), key)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if permission != "" && !record.HasPermission(permission) {
			AbortWithError(c, ErrForbidden)
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, contextKey(contextAuthTypeKey), "api_key")
		ctx = context.WithValue(ctx, contextKey(contextAPIKeyIDKey), int64(record.ID))
		ctx = obscontext.WithActor(ctx, "api_key", record.ID.String())
		ctx = companyctx.WithCompanyID(ctx, int64(record.CompanyID))

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type contextKey string

// ScanRateLimit throttles the public scan endpoint per client address.
func (s *Server) ScanRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.scanLimiter.Allow(c.ClientIP()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
