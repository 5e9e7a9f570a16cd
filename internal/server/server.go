package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/facturio/facturio/internal/config"
	customerdomain "github.com/facturio/facturio/internal/customer/domain"
	documentdomain "github.com/facturio/facturio/internal/document/domain"
	productdomain "github.com/facturio/facturio/internal/product/domain"
	supplierdomain "github.com/facturio/facturio/internal/supplier/domain"
	taxdomain "github.com/facturio/facturio/internal/tax/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	taxSvc      taxdomain.Service
	productSvc  productdomain.Service
	customerSvc customerdomain.Service
	supplierSvc supplierdomain.Service
	documentSvc documentdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	TaxSvc      taxdomain.Service
	ProductSvc  productdomain.Service
	CustomerSvc customerdomain.Service
	SupplierSvc supplierdomain.Service
	DocumentSvc documentdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		taxSvc:      p.TaxSvc,
		productSvc:  p.ProductSvc,
		customerSvc: p.CustomerSvc,
		supplierSvc: p.SupplierSvc,
		documentSvc: p.DocumentSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	taxRules := v1.Group("/tax/rules")
	taxRules.POST("", s.CreateTaxRule)
	taxRules.GET("", s.ListTaxRules)
	taxRules.PATCH("/:id", s.UpdateTaxRule)
	taxRules.POST("/:id/disable", s.DisableTaxRule)

	taxGroups := v1.Group("/tax/groups")
	taxGroups.POST("", s.CreateTaxGroup)
	taxGroups.GET("", s.ListTaxGroups)
	taxGroups.PATCH("/:id", s.UpdateTaxGroup)
	taxGroups.POST("/:id/disable", s.DisableTaxGroup)

	products := v1.Group("/products")
	products.POST("", s.CreateProduct)
	products.GET("", s.ListProducts)
	products.GET("/:id", s.GetProductByID)
	products.PATCH("/:id", s.UpdateProduct)

	customers := v1.Group("/customers")
	customers.POST("", s.CreateCustomer)
	customers.GET("", s.ListCustomers)
	customers.GET("/:id", s.GetCustomerByID)

	suppliers := v1.Group("/suppliers")
	suppliers.POST("", s.CreateSupplier)
	suppliers.GET("", s.ListSuppliers)
	suppliers.GET("/:id", s.GetSupplierByID)

	documents := v1.Group("/documents")
	documents.POST("", s.CreateDocument)
	documents.GET("", s.ListDocuments)
	documents.GET("/:id", s.GetDocumentByID)
	documents.POST("/:id/lines", s.AddDocumentLine)
	documents.PATCH("/:id/lines/:lineID", s.UpdateDocumentLine)
	documents.DELETE("/:id/lines/:lineID", s.RemoveDocumentLine)
	documents.POST("/:id/refresh", s.RefreshDocumentTotals)
	documents.POST("/:id/status", s.UpdateDocumentStatus)
	documents.POST("/:id/credit-note", s.CreateCreditNote)
	documents.POST("/:id/convert", s.ConvertQuote)
}
