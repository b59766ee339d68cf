package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/wikireviews/backend/internal/config"
	"github.com/wikireviews/backend/internal/database"
	"github.com/wikireviews/backend/internal/handlers"
	"github.com/wikireviews/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
	rdb     *redis.Client
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Initialize database
	db := database.New()

	// Create unified handler
	handler := handlers.NewHandler(db.GetDB(), config.Scoring())

	// Create server instance
	newServer := &Server{
		db:      db,
		handler: handler,
		rdb:     newRedisClient(),
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Every request carries an anonymous session identity
	r.Use(middleware.Session())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Review routes (public reads; creation allowed anonymously)
		api.GET("/pages/:id/reviews", middleware.OptionalAuth(), s.handler.Review.GetReviews)
		api.GET("/pages/:id/stats", s.handler.Review.GetStats)
		api.POST("/pages/:id/reviews",
			middleware.OptionalAuth(),
			middleware.RateLimit(s.rdb, "review", 5, time.Hour),
			s.handler.Review.CreateReview)
		api.PUT("/reviews/:id", middleware.OptionalAuth(), s.handler.Review.UpdateReview)
		api.DELETE("/reviews/:id", middleware.OptionalAuth(), s.handler.Review.DeleteReview)
		api.POST("/reviews/:id/flag",
			middleware.OptionalAuth(),
			middleware.RateLimit(s.rdb, "flag", 10, time.Hour),
			s.handler.Review.FlagReview)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			// Verification voting
			protected.POST("/reviews/:id/verify",
				middleware.RateLimit(s.rdb, "verify", 30, time.Hour),
				s.handler.Verify.CastVote)
			protected.DELETE("/reviews/:id/verify", s.handler.Verify.WithdrawVote)

			// Administrative
			admin := protected.Group("")
			admin.Use(middleware.AdminOnly())
			{
				admin.POST("/reviews/:id/lock", s.handler.Verify.LockVerification)
				admin.DELETE("/reviews/:id/lock", s.handler.Verify.UnlockVerification)
			}
		}
	}

	return r
}

// newRedisClient connects the rate-limit backend. An unset address leaves it
// nil, which disables limiting rather than blocking startup.
func newRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		log.Println("REDIS_ADDRESS not set; rate limiting disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("failed to connect redis (addr=%s): %v; rate limiting disabled", addr, err)
		return nil
	}
	log.Printf("connected to redis (addr=%s)", addr)
	return rdb
}
