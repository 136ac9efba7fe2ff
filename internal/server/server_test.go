package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/giftway/internal/auth/domain"
	"github.com/smallbiznis/giftway/internal/config"
	redemptiondomain "github.com/smallbiznis/giftway/internal/redemption/domain"
	scanlogdomain "github.com/smallbiznis/giftway/internal/scanlog/domain"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"go.uber.org/zap"
)

type stubRedemption struct {
	resp *redemptiondomain.ScanResponse
	err  error
}

func (s *stubRedemption) Scan(ctx context.Context, req redemptiondomain.ScanRequest) (*redemptiondomain.ScanResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubAuth struct {
	claims *authdomain.Claims
	apiKey *authdomain.APIKey
}

func (s *stubAuth) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResponse, error) {
	return nil, authdomain.ErrInvalidCredentials
}

func (s *stubAuth) VerifyToken(token string) (*authdomain.Claims, error) {
	if s.claims == nil || token != "valid" {
		return nil, authdomain.ErrInvalidToken
	}
	return s.claims, nil
}

func (s *stubAuth) CreateAPIKey(ctx context.Context, req authdomain.CreateAPIKeyRequest) (*authdomain.CreateAPIKeyResponse, error) {
	return nil, authdomain.ErrCompanyNotFound
}

func (s *stubAuth) AuthenticateAPIKey(ctx context.Context, key string) (*authdomain.APIKey, error) {
	if s.apiKey == nil || key != "machine" {
		return nil, authdomain.ErrAPIKeyNotFound
	}
	return s.apiKey, nil
}

type stubRecorder struct{}

func (stubRecorder) Record(ctx context.Context, entry scanlogdomain.Entry) error { return nil }
func (stubRecorder) List(ctx context.Context, filter scanlogdomain.ListFilter) ([]scanlogdomain.ScanLog, error) {
	return nil, nil
}

func newTestServer(t *testing.T, scanLimit int) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &Server{
		cfg: config.Config{
			Environment:    "test",
			ScanRateLimit:  scanLimit,
			ScanRateWindow: time.Minute,
		},
		log: zap.NewNop(),
		redemptionSvc: &stubRedemption{resp: &redemptiondomain.ScanResponse{
			PIN:            "1111-2222-3333-4444",
			Product:        "Game Credit",
			AmountCents:    2500,
			Currency:       "USD",
			ScansRemaining: 2,
		}},
		authSvc:     &stubAuth{claims: &authdomain.Claims{UserID: "1", Role: authdomain.RoleStaff}},
		scanlogSvc:  stubRecorder{},
		scanLimiter: newRateLimiter(scanLimit, time.Minute),
	}
}

func TestScanEndpointReturnsPIN(t *testing.T) {
	srv := newTestServer(t, 10)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scan/ABCD1234", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp redemptiondomain.ScanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PIN != "1111-2222-3333-4444" || resp.ScansRemaining != 2 {
		t.Fatalf("unexpected scan response %+v", resp)
	}
}

func TestScanEndpointNotActivatedBody(t *testing.T) {
	srv := newTestServer(t, 10)
	srv.redemptionSvc = &stubRedemption{err: &redemptiondomain.NotActivatedError{
		Store: storedomain.Contact{Name: "Airport Kiosk", Phone: "+15550100"},
	}}
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scan/ABCD1234", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
		Store struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
		} `json:"store"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "not_activated" || body.Store.Phone != "+15550100" {
		t.Fatalf("expected store contact in body, got %s", rec.Body.String())
	}
}

func TestScanEndpointRateLimited(t *testing.T) {
	srv := newTestServer(t, 1)
	router := srv.Router()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/scan/ABCD1234", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first scan should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/scan/ABCD1234", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}

func TestStaffRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, 10)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scan-logs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/scan-logs", nil)
	req.Header.Set("Authorization", "Bearer valid")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRejectStaffRole(t *testing.T) {
	srv := newTestServer(t, 10)
	router := srv.Router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/api-keys", nil)
	req.Header.Set("Authorization", "Bearer valid")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff role, got %d", rec.Code)
	}
}

func TestMachineRoutesRequireAPIKey(t *testing.T) {
	srv := newTestServer(t, 10)
	srv.authSvc = &stubAuth{apiKey: &authdomain.APIKey{
		ID:          1,
		CompanyID:   2,
		Permissions: authdomain.PermissionInvoicesManage,
		IsActive:    true,
	}}
	router := srv.Router()

	// Wrong key.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/cards", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown key, got %d", rec.Code)
	}

	// Valid key without the cards:create permission.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/cards", nil)
	req.Header.Set("Authorization", "Bearer machine")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing permission, got %d", rec.Code)
	}
}
