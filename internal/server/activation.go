package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	activationdomain "github.com/smallbiznis/giftway/internal/activation/domain"
)

const headerSignature = "X-Signature"

// maxWebhookBody caps the raw payload read from the activation provider.
const maxWebhookBody = 64 * 1024

// @Summary      Activation Webhook
// @Description  Activate a card after an authorized store phone calls in
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body activationdomain.ActivateRequest true "Activation payload"
// @Success      200  {object}  activationdomain.CardActivation
// @Router       /webhooks/activation [post]
func (s *Server) ActivationWebhook(c *gin.Context) {
	// The signature covers the raw bytes, so the body is read before any
	// JSON decoding.
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	signature := strings.TrimSpace(c.GetHeader(headerSignature))
	if err := s.activationSvc.VerifySignature(raw, signature); err != nil {
		AbortWithError(c, err)
		return
	}

	var req activationdomain.ActivateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.activationSvc.Activate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}
