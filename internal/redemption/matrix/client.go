package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smallbiznis/giftway/internal/config"
	"github.com/smallbiznis/giftway/internal/observability/tracing"
	"go.uber.org/zap"
)

// KeyRequest describes the card being redeemed so the provider can issue the
// matching activation key.
type KeyRequest struct {
	SKU         string `json:"sku"`
	Product     string `json:"product"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	StoreCode   string `json:"store_code"`
	Reference   string `json:"reference"`
}

type KeyResult struct {
	KeyID         string `json:"key_id"`
	PIN           string `json:"pin"`
	TransactionID string `json:"transaction_id"`
	SerialNumber  string `json:"serial_number"`
}

// Client fetches activation keys from the upstream key provider.
type Client interface {
	FetchKey(ctx context.Context, req KeyRequest) (*KeyResult, error)
}

var (
	ErrUnavailable = errors.New("provider_unavailable")
	ErrRejected    = errors.New("provider_rejected")
)

type httpClient struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	log     *zap.Logger
}

func NewHTTPClient(cfg config.Config, log *zap.Logger) Client {
	timeout := cfg.MatrixTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: cfg.MatrixBaseURL,
		apiKey:  cfg.MatrixAPIKey,
		hc:      tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		log:     log.Named("matrix.client"),
	}
}

func (c *httpClient) FetchKey(ctx context.Context, req KeyRequest) (*KeyResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/keys/issue", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		c.log.Warn("key request failed", zap.String("sku", req.SKU), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.log.Warn("key request rejected",
			zap.String("sku", req.SKU),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result KeyResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if result.PIN == "" {
		return nil, fmt.Errorf("%w: empty pin", ErrRejected)
	}
	return &result, nil
}
