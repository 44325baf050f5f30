package http

import (
	"net/http"

	"github.com/clearlot-api/internal/application/auth"
	"github.com/clearlot-api/internal/application/enrichment"
	"github.com/clearlot-api/internal/application/invoice"
	"github.com/clearlot-api/internal/application/marketplace"
	"github.com/clearlot-api/internal/application/notification"
	"github.com/clearlot-api/internal/application/upload"
	"github.com/clearlot-api/internal/config"
	"github.com/clearlot-api/internal/domain"
	"github.com/clearlot-api/internal/transport/http/handler"
	appmiddleware "github.com/clearlot-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     UserRepository
	PurchaseRepo PurchaseRepository
	OfferRepo    OfferRepository
	ObjectStore  ObjectStore // nil disables uploads and invoice archiving
	JWTProvider  TokenProvider
	Hub          *notification.Hub
	// LoginLimiter throttles sign-in per client IP. The caller owns it and
	// stops it on shutdown; nil builds a default one.
	LoginLimiter *appmiddleware.RateLimiter
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.Metrics)

	authMw := appmiddleware.Auth(deps.JWTProvider)
	loginRL := deps.LoginLimiter
	if loginRL == nil {
		// 5 requests/second, burst of 10.
		loginRL = appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	}

	enricher := enrichment.NewEnricher(deps.OfferRepo, deps.UserRepo, cfg.Enrichment)
	notifSvc := notification.NewService(deps.Hub)
	authSvc := auth.NewService(auth.ServiceDeps{UserRepo: deps.UserRepo, JWTProvider: deps.JWTProvider})
	marketSvc := marketplace.NewService(marketplace.ServiceDeps{
		Purchases: deps.PurchaseRepo,
		Offers:    deps.OfferRepo,
		Users:     deps.UserRepo,
		Enricher:  enricher,
		Publisher: notifSvc,
	})
	var invoiceStore invoice.ObjectStore
	var uploadSvc upload.Service
	if deps.ObjectStore != nil {
		invoiceStore = deps.ObjectStore
		uploadSvc = upload.NewService(deps.ObjectStore)
	}
	invoiceSvc := invoice.NewService(deps.PurchaseRepo, enricher, invoiceStore, invoice.TemplateFromConfig(cfg.Invoice))

	healthH := handler.NewHealthHandler(deps.Hub)
	sessionH := handler.NewSessionHandler(authSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	streamH := handler.NewStreamHandler(notifSvc, cfg.AllowedOrigins)
	adminH := handler.NewAdminHandler(marketSvc, invoiceSvc)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(loginRL.Limit).Post("/sessions/login", sessionH.Login)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/notifications", notifH.List)
			r.Post("/notifications", notifH.Create)
			r.Delete("/notifications", notifH.ClearAll)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Get("/notifications/stream", streamH.Stream)
			r.Put("/notifications/read-all", notifH.MarkAllAsRead)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			if uploadSvc != nil {
				r.Post("/uploads/{kind}", handler.NewUploadHandler(uploadSvc).Upload)
			}

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/admin/purchases", adminH.ListPurchases)
				r.Get("/admin/purchases/{id}/invoice", adminH.Invoice)
				r.Put("/admin/purchases/{id}/status", adminH.UpdatePurchaseStatus)
				r.Post("/admin/purchases/{id}/notify", adminH.NotifyPurchase)
				r.Put("/admin/offers/{id}/status", adminH.UpdateOfferStatus)
				r.Put("/admin/offers/{id}/price", adminH.UpdateOfferPrice)
				r.Put("/admin/users/{id}/status", adminH.UpdateAccountStatus)
				r.Post("/admin/announcements", adminH.Announce)
			})
		})
	})

	return r
}
