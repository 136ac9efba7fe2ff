package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	activationdomain "github.com/smallbiznis/giftway/internal/activation/domain"
	authdomain "github.com/smallbiznis/giftway/internal/auth/domain"
	carddomain "github.com/smallbiznis/giftway/internal/card/domain"
	catalogdomain "github.com/smallbiznis/giftway/internal/catalog/domain"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	invoicedomain "github.com/smallbiznis/giftway/internal/invoice/domain"
	redemptiondomain "github.com/smallbiznis/giftway/internal/redemption/domain"
	reportingdomain "github.com/smallbiznis/giftway/internal/reporting/domain"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
)

// APIError is the wire shape for every non-2xx response.
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized       = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	ErrForbidden          = &APIError{Status: http.StatusForbidden, Code: "forbidden"}
	ErrNotFound           = &APIError{Status: http.StatusNotFound, Code: "not_found"}
	ErrTooManyRequests    = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited"}
	ErrServiceUnavailable = &APIError{Status: http.StatusServiceUnavailable, Code: "service_unavailable"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Details: map[string]any{"field": field},
	}
}

// statusByError maps domain sentinels to HTTP statuses. Anything not listed
// is treated as an internal error.
var statusByError = map[error]int{
	carddomain.ErrInvalidID:           http.StatusBadRequest,
	carddomain.ErrInvalidQuantity:     http.StatusBadRequest,
	carddomain.ErrInvalidAmount:       http.StatusBadRequest,
	carddomain.ErrMissingDenomination: http.StatusBadRequest,
	carddomain.ErrStoreNotFound:       http.StatusNotFound,
	carddomain.ErrProductNotFound:     http.StatusNotFound,
	carddomain.ErrNotFound:            http.StatusNotFound,
	carddomain.ErrCardActivated:       http.StatusConflict,

	catalogdomain.ErrInvalidID:            http.StatusBadRequest,
	catalogdomain.ErrInvalidSKU:           http.StatusBadRequest,
	catalogdomain.ErrInvalidName:          http.StatusBadRequest,
	catalogdomain.ErrInvalidKind:          http.StatusBadRequest,
	catalogdomain.ErrInvalidAmount:        http.StatusBadRequest,
	catalogdomain.ErrInvalidCurrency:      http.StatusBadRequest,
	catalogdomain.ErrSKUTaken:             http.StatusConflict,
	catalogdomain.ErrNotFound:             http.StatusNotFound,
	catalogdomain.ErrDenominationTaken:    http.StatusConflict,
	catalogdomain.ErrDenominationNotFound: http.StatusNotFound,

	companydomain.ErrInvalidID:             http.StatusBadRequest,
	companydomain.ErrInvalidName:           http.StatusBadRequest,
	companydomain.ErrInvalidTaxID:          http.StatusBadRequest,
	companydomain.ErrInvalidFrequency:      http.StatusBadRequest,
	companydomain.ErrInvalidCommissionRate: http.StatusBadRequest,
	companydomain.ErrTaxIDTaken:            http.StatusConflict,
	companydomain.ErrNotFound:              http.StatusNotFound,

	storedomain.ErrInvalidID:        http.StatusBadRequest,
	storedomain.ErrInvalidCompany:   http.StatusBadRequest,
	storedomain.ErrInvalidCode:      http.StatusBadRequest,
	storedomain.ErrInvalidName:      http.StatusBadRequest,
	storedomain.ErrInvalidPhone:     http.StatusBadRequest,
	storedomain.ErrCodeTaken:        http.StatusConflict,
	storedomain.ErrNotFound:         http.StatusNotFound,
	storedomain.ErrPhoneNotFound:    http.StatusNotFound,
	storedomain.ErrPhoneDuplicate:   http.StatusConflict,
	storedomain.ErrCompanyInactive:  http.StatusConflict,
	storedomain.ErrCompanyNotFound:  http.StatusNotFound,
	storedomain.ErrMissingCompanyID: http.StatusUnauthorized,

	redemptiondomain.ErrCardNotFound: http.StatusNotFound,
	redemptiondomain.ErrNotActivated: http.StatusForbidden,
	redemptiondomain.ErrMaxScans:     http.StatusForbidden,
	redemptiondomain.ErrUpstream:     http.StatusBadGateway,

	activationdomain.ErrCardNotFound:       http.StatusNotFound,
	activationdomain.ErrAlreadyActivated:   http.StatusConflict,
	activationdomain.ErrPhoneNotAuthorized: http.StatusForbidden,
	activationdomain.ErrInvalidSignature:   http.StatusUnauthorized,
	activationdomain.ErrMissingPhone:       http.StatusBadRequest,

	invoicedomain.ErrInvalidID:           http.StatusBadRequest,
	invoicedomain.ErrNotFound:            http.StatusNotFound,
	invoicedomain.ErrCompanyNotFound:     http.StatusNotFound,
	invoicedomain.ErrInvalidPeriod:       http.StatusBadRequest,
	invoicedomain.ErrNoPendingActivation: http.StatusConflict,
	invoicedomain.ErrMissingItems:        http.StatusBadRequest,
	invoicedomain.ErrInvalidItem:         http.StatusBadRequest,
	invoicedomain.ErrInvalidRate:         http.StatusBadRequest,
	invoicedomain.ErrNotPending:          http.StatusConflict,
	invoicedomain.ErrAlreadyCancelled:    http.StatusConflict,
	invoicedomain.ErrNumberExhausted:     http.StatusConflict,

	reportingdomain.ErrInvalidCompany: http.StatusBadRequest,
	reportingdomain.ErrInvalidPeriod:  http.StatusBadRequest,

	authdomain.ErrInvalidCredentials: http.StatusUnauthorized,
	authdomain.ErrUserInactive:       http.StatusForbidden,
	authdomain.ErrInvalidToken:       http.StatusUnauthorized,
	authdomain.ErrTokenExpired:       http.StatusUnauthorized,
	authdomain.ErrAPIKeyNotFound:     http.StatusUnauthorized,
	authdomain.ErrAPIKeyExpired:      http.StatusUnauthorized,
	authdomain.ErrCompanyNotFound:    http.StatusNotFound,
	authdomain.ErrMissingName:        http.StatusBadRequest,
}

// AbortWithError writes the error response for err and stops the handler
// chain. Unknown errors become an opaque 500 so internals never leak.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
		return
	}

	var notActivated *redemptiondomain.NotActivatedError
	if errors.As(err, &notActivated) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "not_activated",
			"message": "card has not been activated",
			"store": gin.H{
				"name":  notActivated.Store.Name,
				"phone": notActivated.Store.Phone,
			},
		})
		return
	}

	for sentinel, status := range statusByError {
		if errors.Is(err, sentinel) {
			c.AbortWithStatusJSON(status, gin.H{"error": sentinel.Error()})
			return
		}
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
