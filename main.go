package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/gescom/backend/src/config"
	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/handlers"
	"github.com/username/gescom/backend/src/ledger"
	"github.com/username/gescom/backend/src/logger"
	"github.com/username/gescom/backend/src/models"
	"github.com/username/gescom/backend/src/security"
	"github.com/username/gescom/backend/src/services"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, X-Tenant-ID, Cookie")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("GesCom backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	handlers.InitializeGoogleOAuthConfig()

	authService := security.NewAuthService()
	mfaService := services.NewMFAService()

	store := ledger.NewStore(database.DB)
	metricsService := services.NewMetricsService(store, config.Cfg.LiabilitiesSubtractPayments)
	reportService := services.NewReportService(metricsService, reportCache)
	intakeService := services.NewIntakeService(database.DB, reportService)

	userHandler := handlers.NewUserHandler(authService, mfaService, reportCache)
	companyHandler := handlers.NewCompanyHandler(intakeService)
	referenceHandler := handlers.NewReferenceHandler(intakeService)
	entryHandler := handlers.NewEntryHandler(intakeService)
	reportHandler := handlers.NewReportHandler(reportService)
	uploadHandler := handlers.NewUploadHandler(intakeService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "GesCom Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Get("/auth/csrf", handlers.GetCSRFToken)
			r.Get("/auth/google/login", userHandler.HandleGoogleLogin)
			r.Get("/auth/google/callback", userHandler.HandleGoogleCallback)
		})

		// Authentication routes (CSRF protected)
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Post("/auth/login", userHandler.LoginUserHandler)
			r.Post("/auth/register", userHandler.RegisterUserHandler)
			r.Post("/auth/refresh", userHandler.RefreshTokenHandler)
			r.With(userHandler.AuthMiddleware).Post("/auth/logout", userHandler.LogoutUserHandler)
		})

		// Authenticated, not yet tenant scoped
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Use(userHandler.AuthMiddleware)

			r.Get("/tenants", userHandler.ListTenantsHandler)
			r.Post("/tenants", userHandler.CreateTenantHandler)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(userHandler.AdminMiddleware)
				r.Get("/admin/stats", userHandler.HandleAdminStats)
				r.Get("/admin/mfa/setup", userHandler.HandleGenerateMfaSecret)
				r.Post("/admin/mfa/enable", userHandler.HandleEnableMfa)
			})
		})

		// Tenant-scoped routes: everything touching the books
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Use(userHandler.AuthMiddleware)
			r.Use(userHandler.TenantMiddleware)

			// Reference data
			r.Get("/payment-methods", referenceHandler.ListPaymentMethods)
			r.Get("/companies", companyHandler.ListCompanies)
			r.Post("/companies", companyHandler.CreateCompany)
			r.Get("/companies/{id}", companyHandler.GetCompany)
			r.Put("/companies/{id}", companyHandler.UpdateCompany)
			r.Delete("/companies/{id}", companyHandler.DeleteCompany)
			r.Get("/costs", referenceHandler.ListCostDefs)
			r.Post("/costs", referenceHandler.CreateCostDef)
			r.Put("/costs/{id}", referenceHandler.UpdateCostDef)
			r.Delete("/costs/{id}", referenceHandler.DeleteCostDef)
			r.Get("/sales-categories", referenceHandler.ListSalesCategories)
			r.Post("/sales-categories", referenceHandler.CreateSalesCategory)
			r.Delete("/sales-categories/{id}", referenceHandler.DeleteSalesCategory)

			// Ledger entries
			r.Get("/sales", entryHandler.ListTradeEntries(models.TableSales))
			r.Post("/sales", entryHandler.CreateTradeEntry(models.TableSales))
			r.Put("/sales/{id}", entryHandler.UpdateTradeEntry(models.TableSales))
			r.Delete("/sales/{id}", entryHandler.DeleteEntry(models.TableSales))
			r.Get("/purchases", entryHandler.ListTradeEntries(models.TablePurchases))
			r.Post("/purchases", entryHandler.CreateTradeEntry(models.TablePurchases))
			r.Put("/purchases/{id}", entryHandler.UpdateTradeEntry(models.TablePurchases))
			r.Delete("/purchases/{id}", entryHandler.DeleteEntry(models.TablePurchases))
			r.Get("/recoveries", entryHandler.ListTradeEntries(models.TableRecoveries))
			r.Post("/recoveries", entryHandler.CreateTradeEntry(models.TableRecoveries))
			r.Put("/recoveries/{id}", entryHandler.UpdateTradeEntry(models.TableRecoveries))
			r.Delete("/recoveries/{id}", entryHandler.DeleteEntry(models.TableRecoveries))
			r.Get("/cost-entries", entryHandler.ListCostEntries)
			r.Post("/cost-entries", entryHandler.CreateCostEntry)
			r.Put("/cost-entries/{id}", entryHandler.UpdateCostEntry)
			r.Delete("/cost-entries/{id}", entryHandler.DeleteEntry(models.TableCostEntries))
			r.Get("/payments", entryHandler.ListPayments)
			r.Post("/payments", entryHandler.CreatePayment)
			r.Put("/payments/{id}", entryHandler.UpdatePayment)
			r.Delete("/payments/{id}", entryHandler.DeleteEntry(models.TablePayments))
			r.Get("/reconciliations", entryHandler.ListReconciliations)
			r.Post("/reconciliations", entryHandler.CreateReconciliation)
			r.Put("/reconciliations/{id}", entryHandler.UpdateReconciliation)
			r.Delete("/reconciliations/{id}", entryHandler.DeleteEntry(models.TableReconciliations))
			r.Get("/stocks", entryHandler.ListStockSnapshots)
			r.Post("/stocks", entryHandler.CreateStockSnapshot)
			r.Delete("/stocks/{id}", entryHandler.DeleteEntry(models.TableStockSnapshots))

			// Documents
			r.Post("/{table}/{id}/document", uploadHandler.HandleUploadDocument)
			r.Get("/{table}/{id}/document", uploadHandler.HandleDownloadDocument)

			// Reports
			r.Get("/dashboard", reportHandler.HandleDashboard)
			r.Get("/exploitation", reportHandler.HandleExploitation)
			r.Get("/treasury", reportHandler.HandleTreasury)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
