package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	redemptiondomain "github.com/smallbiznis/giftway/internal/redemption/domain"
	scanlogdomain "github.com/smallbiznis/giftway/internal/scanlog/domain"
)

// @Summary      Scan Card
// @Description  Redeem a card by uuid or short code and return its PIN
// @Tags         scan
// @Produce      json
// @Param        uid  path  string  true  "Card UUID or short code"
// @Success      200  {object}  redemptiondomain.ScanResponse
// @Router       /scan/{uid} [get]
func (s *Server) Scan(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.redemptionSvc.Scan(c.Request.Context(), redemptiondomain.ScanRequest{
		UID:       uid,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary      List Scan Logs
// @Description  List scan attempts recorded by the redemption gateway
// @Tags         scan
// @Produce      json
// @Security     BearerAuth
// @Param        card_uid  query  string  false  "Card UID"
// @Param        reason    query  string  false  "Reason code"
// @Param        limit     query  int     false  "Row limit"
// @Success      200  {object}  []scanlogdomain.ScanLog
// @Router       /scan-logs [get]
func (s *Server) ListScanLogs(c *gin.Context) {
	var query struct {
		CardUID string `form:"card_uid"`
		Reason  string `form:"reason"`
		Limit   int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	logs, err := s.scanlogSvc.List(c.Request.Context(), scanlogdomain.ListFilter{
		CardUID: strings.TrimSpace(query.CardUID),
		Reason:  strings.TrimSpace(query.Reason),
		Limit:   query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}
