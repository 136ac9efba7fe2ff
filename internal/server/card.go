package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	carddomain "github.com/smallbiznis/giftway/internal/card/domain"
)

// @Summary      Issue Cards
// @Description  Issue a batch of cards for printing
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body carddomain.IssueRequest true "Issue Request"
// @Success      200  {object}  carddomain.IssueResponse
// @Router       /cards [post]
func (s *Server) IssueCards(c *gin.Context) {
	var req carddomain.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.cardSvc.Issue(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// A partially issued batch still returns the cards that made it, with
	// the failure count alongside.
	status := http.StatusOK
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"data": resp})
}

// @Summary      Get Card
// @Description  Get a card by uuid or short code
// @Tags         cards
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path  string  true  "Card UUID or short code"
// @Success      200  {object}  carddomain.Card
// @Router       /cards/{uid} [get]
func (s *Server) GetCardByUID(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	card, err := s.cardSvc.GetByUID(c.Request.Context(), uid)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": card})
}

// @Summary      List Cards
// @Description  List cards filtered by store or batch
// @Tags         cards
// @Produce      json
// @Security     BearerAuth
// @Param        store_id  query  string  false  "Store ID"
// @Param        batch_id  query  string  false  "Batch ID"
// @Success      200  {object}  []carddomain.Card
// @Router       /cards [get]
func (s *Server) ListCards(c *gin.Context) {
	var query struct {
		StoreID string `form:"store_id"`
		BatchID string `form:"batch_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	cards, err := s.cardSvc.List(c.Request.Context(), carddomain.ListRequest{
		StoreID: strings.TrimSpace(query.StoreID),
		BatchID: strings.TrimSpace(query.BatchID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cards})
}

// @Summary      Delete Card
// @Description  Delete a card that has never been activated
// @Tags         cards
// @Security     BearerAuth
// @Param        id  path  string  true  "Card ID"
// @Success      200
// @Router       /cards/{id} [delete]
func (s *Server) DeleteCard(c *gin.Context) {
	if err := s.cardSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
