package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/giftway/internal/reporting"
	reportingdomain "github.com/smallbiznis/giftway/internal/reporting/domain"
)

// @Summary      Daily Activations
// @Description  Activation counts and amounts bucketed by day
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Company ID"
// @Param        from        query  string  false  "Period start (YYYY-MM-DD)"
// @Param        to          query  string  false  "Period end (YYYY-MM-DD)"
// @Param        format      query  string  false  "json or csv"
// @Success      200  {object}  reportingdomain.DailyActivationsResponse
// @Router       /reports/daily-activations [get]
func (s *Server) DailyActivations(c *gin.Context) {
	query, err := reportingQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reportingSvc.DailyActivations(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsCSV(c) {
		writeCSVHeader(c, "daily_activations.csv")
		_ = reporting.WriteDailyActivationsCSV(c.Writer, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Top Stores
// @Description  Stores ranked by activated amount
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Company ID"
// @Param        from        query  string  false  "Period start (YYYY-MM-DD)"
// @Param        to          query  string  false  "Period end (YYYY-MM-DD)"
// @Param        limit       query  int     false  "Row limit"
// @Param        format      query  string  false  "json or csv"
// @Success      200  {object}  reportingdomain.TopStoresResponse
// @Router       /reports/top-stores [get]
func (s *Server) TopStores(c *gin.Context) {
	query, err := reportingQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.reportingSvc.TopStores(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsCSV(c) {
		writeCSVHeader(c, "top_stores.csv")
		_ = reporting.WriteTopStoresCSV(c.Writer, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Issuance Summary
// @Description  Issued, activated, redeemed, and exhausted card counts
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Company ID"
// @Param        from        query  string  false  "Period start (YYYY-MM-DD)"
// @Param        to          query  string  false  "Period end (YYYY-MM-DD)"
// @Success      200  {object}  reportingdomain.IssuanceSummary
// @Router       /reports/issuance-summary [get]
func (s *Server) IssuanceSummary(c *gin.Context) {
	query, err := reportingQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.reportingSvc.IssuanceSummary(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func reportingQuery(c *gin.Context) (reportingdomain.Query, error) {
	query := reportingdomain.Query{
		CompanyID: strings.TrimSpace(c.Query("company_id")),
	}

	var err error
	if query.From, err = parseReportTime(c.Query("from")); err != nil {
		return query, newValidationError("from", "invalid_from", "invalid from date")
	}
	if query.To, err = parseReportTime(c.Query("to")); err != nil {
		return query, newValidationError("to", "invalid_to", "invalid to date")
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return query, newValidationError("limit", "invalid_limit", "invalid limit")
		}
		query.Limit = limit
	}

	return query, nil
}

// parseReportTime accepts a bare date or a full RFC 3339 timestamp.
func parseReportTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func wantsCSV(c *gin.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.Query("format")), "csv")
}

func writeCSVHeader(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
}
