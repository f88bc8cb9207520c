package server

import (
	"fmt"
	"net/http"
	"time"

	"ehsaas-jewels/internal/config"
	"ehsaas-jewels/internal/database"
	custommiddleware "ehsaas-jewels/internal/middleware"
	"ehsaas-jewels/internal/repository"
	"ehsaas-jewels/internal/service"
	"ehsaas-jewels/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	router.Get("/health", healthHandler(db, redisClient))

	// Repositories
	userRepo := repository.NewUserRepository(db.DB())
	refreshTokenRepo := repository.NewRefreshTokenRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	variantRepo := repository.NewVariantRepository(db.DB())
	cartRepo := repository.NewCartRepository(redisClient)
	orderRepo := repository.NewOrderRepository(db.DB())

	// Services
	sessions := service.NewSessionStore(redisClient, userRepo, cfg.Session, logger)
	userService := service.NewUserService(userRepo, refreshTokenRepo, sessions, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(productRepo, variantRepo, logger)
	cartService := service.NewCartService(cartRepo, catalogService, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, logger)
	postalService := service.NewPostalService(
		service.NewHTTPPincodeClient(cfg.Postal.BaseURL),
		redisClient,
		cfg.Postal,
		logger,
	)

	// Handlers
	userHandler := transport.NewUserHandler(userService, cartService, sessions, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	postalHandler := transport.NewPostalHandler(postalService, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger)

	// Public storefront
	userHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router, optionalAuth)
	orderHandler.RegisterRoutes(router, authMiddleware)
	postalHandler.RegisterRoutes(router)

	// Admin surface
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(custommiddleware.RequireStaff(logger))
		productHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
		userHandler.RegisterAdminRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func healthHandler(db *database.Service, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())

		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			health["redis"] = "down"
		} else {
			health["redis"] = "up"
		}

		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
