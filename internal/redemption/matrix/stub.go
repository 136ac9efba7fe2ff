package matrix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// StubClient issues deterministic keys without calling the upstream provider.
// Used in non-production environments and local development.
type StubClient struct{}

func NewStubClient() Client { return &StubClient{} }

func (s *StubClient) FetchKey(_ context.Context, req KeyRequest) (*KeyResult, error) {
	sum := sha256.Sum256([]byte(req.Reference + "|" + req.SKU))
	digits := make([]byte, 0, 16)
	for _, b := range sum[:] {
		digits = append(digits, '0'+b%10)
		if len(digits) == 16 {
			break
		}
	}
	return &KeyResult{
		KeyID:         hex.EncodeToString(sum[:8]),
		PIN:           fmt.Sprintf("%s-%s-%s-%s", digits[0:4], digits[4:8], digits[8:12], digits[12:16]),
		TransactionID: uuid.NewString(),
		SerialNumber:  hex.EncodeToString(sum[8:16]),
	}, nil
}
