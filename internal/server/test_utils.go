package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes fixture companies seeded by end-to-end suites. It is
// matched by company name prefix and disabled outright in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	companyIDs, err := s.loadCompanyIDsByPrefix(ctx, prefix)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deleteCompanyData(ctx, companyIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "companies": len(companyIDs)})
}

func (s *Server) loadCompanyIDsByPrefix(ctx context.Context, prefix string) ([]int64, error) {
	like := strings.TrimSpace(prefix) + "%"
	var companyIDs []int64
	if err := s.db.WithContext(ctx).
		Table("companies").
		Select("id").
		Where("name LIKE ?", like).
		Scan(&companyIDs).Error; err != nil {
		return nil, err
	}
	return companyIDs, nil
}

func (s *Server) deleteCompanyData(ctx context.Context, companyIDs []int64) error {
	if len(companyIDs) == 0 {
		return nil
	}
	queries := []string{
		`DELETE FROM scan_logs WHERE card_id IN (
			SELECT id FROM cards WHERE store_id IN (SELECT id FROM stores WHERE company_id IN ?))`,
		`DELETE FROM provider_keys WHERE id IN (
			SELECT key_id FROM cards WHERE key_id IS NOT NULL
			  AND store_id IN (SELECT id FROM stores WHERE company_id IN ?))`,
		`DELETE FROM card_activations WHERE store_id IN (SELECT id FROM stores WHERE company_id IN ?)`,
		`DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE company_id IN ?)`,
		`DELETE FROM invoices WHERE company_id IN ?`,
		`DELETE FROM cards WHERE store_id IN (SELECT id FROM stores WHERE company_id IN ?)`,
		`DELETE FROM authorized_phones WHERE store_id IN (SELECT id FROM stores WHERE company_id IN ?)`,
		`DELETE FROM stores WHERE company_id IN ?`,
		`DELETE FROM api_keys WHERE company_id IN ?`,
		`DELETE FROM giftcard_events WHERE company_id IN ?`,
		`DELETE FROM companies WHERE id IN ?`,
	}
	for _, query := range queries {
		if err := s.db.WithContext(ctx).Exec(query, companyIDs).Error; err != nil {
			return err
		}
	}
	return nil
}
