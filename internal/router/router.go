package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washline/api/internal/config"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/enum"
	"github.com/washline/api/internal/handler"
	"github.com/washline/api/internal/logging"
	mw "github.com/washline/api/internal/middleware"
	"github.com/washline/api/internal/service"
	"github.com/washline/api/internal/ws"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Queries  *database.Queries
	Pool     *pgxpool.Pool
	Hub      *ws.Hub
	Service  *service.FulfillmentService
	Geocoder handler.Geocoder
	Logger   *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication, outlet scoping, and role-based middleware as needed.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(d.Queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Gateway callback: authenticated by its signature, not a token.
	callbackHandler := handler.NewPaymentCallbackHandler(d.Service)
	r.Post("/payments/callback", callbackHandler.Callback)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, cfg.JWTSecret, logging.FromContext(r.Context()), w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Get("/notifications", handler.ListNotifications(d.Queries))
		r.Get("/laundry-items", handler.ListLaundryItems(d.Queries))

		employeeHandler := handler.NewEmployeeHandler(d.Queries)
		r.With(mw.RequireRole(enum.RoleSuperAdmin, enum.RoleOutletAdmin)).Get("/shifts", employeeHandler.Shifts)

		outletHandler := handler.NewOutletHandler(d.Queries, d.Geocoder, d.Service)
		r.Route("/outlets", func(r chi.Router) {
			outletHandler.RegisterRoutes(r)

			// Outlet-scoped routes
			r.Route("/{oid}/employees", func(r chi.Router) {
				r.Use(mw.RequireOutlet)
				employeeHandler.RegisterRoutes(r)
			})
		})

		addressHandler := handler.NewAddressHandler(
			d.Queries,
			d.Pool,
			func(db database.DBTX) handler.AddressStore {
				return database.New(db)
			},
		)
		r.Route("/addresses", addressHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(d.Service)
		r.Route("/orders", orderHandler.RegisterRoutes)

		jobHandler := handler.NewJobHandler(d.Service)
		r.Route("/jobs", jobHandler.RegisterRoutes)

		deliveryHandler := handler.NewDeliveryHandler(d.Service)
		r.Route("/deliveries", deliveryHandler.RegisterRoutes)

		requestAccessHandler := handler.NewRequestAccessHandler(d.Service)
		r.Route("/request-accesses", requestAccessHandler.RegisterRoutes)
	})

	return r
}
