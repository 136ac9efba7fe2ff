package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	activationdomain "github.com/smallbiznis/giftway/internal/activation/domain"
	authdomain "github.com/smallbiznis/giftway/internal/auth/domain"
	carddomain "github.com/smallbiznis/giftway/internal/card/domain"
	catalogdomain "github.com/smallbiznis/giftway/internal/catalog/domain"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"github.com/smallbiznis/giftway/internal/config"
	invoicedomain "github.com/smallbiznis/giftway/internal/invoice/domain"
	"github.com/smallbiznis/giftway/internal/invoice/render"
	"github.com/smallbiznis/giftway/internal/observability/logger"
	"github.com/smallbiznis/giftway/internal/observability/metrics"
	redemptiondomain "github.com/smallbiznis/giftway/internal/redemption/domain"
	reportingdomain "github.com/smallbiznis/giftway/internal/reporting/domain"
	scanlogdomain "github.com/smallbiznis/giftway/internal/scanlog/domain"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server carries the HTTP surface of the back office plus the two public
// endpoints (card scan, activation webhook).
type Server struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB

	cardSvc       carddomain.Service
	catalogSvc    catalogdomain.Service
	companySvc    companydomain.Service
	storeSvc      storedomain.Service
	redemptionSvc redemptiondomain.Service
	activationSvc activationdomain.Service
	invoiceSvc    invoicedomain.Service
	reportingSvc  reportingdomain.Service
	authSvc       authdomain.Service
	scanlogSvc    scanlogdomain.Recorder
	renderer      render.Renderer

	httpMetrics *metrics.HTTPMetrics
	scanLimiter *rateLimiter
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	DB     *gorm.DB

	CardSvc       carddomain.Service
	CatalogSvc    catalogdomain.Service
	CompanySvc    companydomain.Service
	StoreSvc      storedomain.Service
	RedemptionSvc redemptiondomain.Service
	ActivationSvc activationdomain.Service
	InvoiceSvc    invoicedomain.Service
	ReportingSvc  reportingdomain.Service
	AuthSvc       authdomain.Service
	ScanlogSvc    scanlogdomain.Recorder
	Renderer      render.Renderer

	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

func New(p Params) *Server {
	return &Server{
		cfg:           p.Config,
		log:           p.Log.Named("server"),
		db:            p.DB,
		cardSvc:       p.CardSvc,
		catalogSvc:    p.CatalogSvc,
		companySvc:    p.CompanySvc,
		storeSvc:      p.StoreSvc,
		redemptionSvc: p.RedemptionSvc,
		activationSvc: p.ActivationSvc,
		invoiceSvc:    p.InvoiceSvc,
		reportingSvc:  p.ReportingSvc,
		authSvc:       p.AuthSvc,
		scanlogSvc:    p.ScanlogSvc,
		renderer:      p.Renderer,
		httpMetrics:   p.HTTPMetrics,
		scanLimiter:   newRateLimiter(p.Config.ScanRateLimit, p.Config.ScanRateWindow),
	}
}

// Router builds the gin engine with middleware and every route.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{SkipPaths: []string{"/healthz"}}))
	r.Use(metrics.GinMiddleware(s.httpMetrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Signature", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", s.Health)

	// Public surface: card scans and the activation webhook.
	r.GET("/scan/:uid", s.ScanRateLimit(), s.Scan)
	r.POST("/webhooks/activation", s.ActivationWebhook)

	r.POST("/v1/auth/login", s.Login)

	// Machine surface for printers and kiosk software.
	machine := r.Group("/v1", s.APIKeyRequired(authdomain.PermissionCardsCreate))
	{
		machine.POST("/cards", s.IssueCards)
	}

	// Staff back office.
	staff := r.Group("/v1", s.AuthRequired())
	{
		staff.GET("/cards", s.ListCards)
		staff.GET("/cards/:uid", s.GetCardByUID)
		staff.DELETE("/cards/:id", s.DeleteCard)

		staff.POST("/products", s.CreateProduct)
		staff.GET("/products", s.ListProducts)
		staff.GET("/products/:id", s.GetProduct)
		staff.POST("/products/:id/archive", s.ArchiveProduct)
		staff.POST("/products/:id/denominations", s.AddDenomination)
		staff.GET("/products/:id/denominations", s.ListDenominations)

		staff.POST("/companies", s.CreateCompany)
		staff.GET("/companies", s.ListCompanies)
		staff.GET("/companies/:id", s.GetCompany)
		staff.PATCH("/companies/:id", s.UpdateCompany)

		staff.POST("/stores", s.CreateStore)
		staff.GET("/stores", s.ListStores)
		staff.GET("/stores/:id", s.GetStore)
		staff.PATCH("/stores/:id", s.UpdateStore)
		staff.POST("/stores/:id/phones", s.AuthorizePhone)
		staff.DELETE("/stores/:id/phones", s.RevokePhone)
		staff.GET("/stores/:id/phones", s.ListAuthorizedPhones)

		staff.POST("/invoices/generate", s.GenerateInvoice)
		staff.POST("/invoices", s.CreateInvoice)
		staff.GET("/invoices", s.ListInvoices)
		staff.GET("/invoices/:id", s.GetInvoice)
		staff.GET("/invoices/:id/html", s.RenderInvoiceHTML)
		staff.POST("/invoices/:id/pay", s.MarkInvoicePaid)
		staff.POST("/invoices/:id/cancel", s.CancelInvoice)

		staff.GET("/reports/daily-activations", s.DailyActivations)
		staff.GET("/reports/top-stores", s.TopStores)
		staff.GET("/reports/issuance-summary", s.IssuanceSummary)

		staff.GET("/scan-logs", s.ListScanLogs)

		staff.POST("/api-keys", s.RequireRole(authdomain.RoleAdmin), s.CreateAPIKey)

		staff.POST("/test/cleanup", s.RequireRole(authdomain.RoleAdmin), s.TestCleanup)
	}

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(registerHTTP),
)

func registerHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
