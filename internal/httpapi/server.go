package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/auth"
	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/internal/events"
	grpcserver "github.com/pagevault/library/internal/grpc"
	"github.com/pagevault/library/internal/metrics"
	"github.com/pagevault/library/internal/repo"
	"github.com/pagevault/library/internal/uploads"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// Options wires the dependencies of the HTTP server. Metrics and Health are optional.
type Options struct {
	Catalog     *repo.CatalogRepository
	Ledger      *repo.RentalLedger
	Auth        *auth.Service
	Storage     *uploads.Storage
	Publisher   events.EventPublisher
	Metrics     *metrics.Metrics
	Health      *grpcserver.Checker
	CORSOrigins []string
	Log         *zap.Logger
}

// Server is the HTTP surface of the library
type Server struct {
	catalog   *repo.CatalogRepository
	ledger    *repo.RentalLedger
	auth      *auth.Service
	storage   *uploads.Storage
	publisher events.EventPublisher
	health    *grpcserver.Checker
	log       *zap.Logger

	engine  *gin.Engine
	handler http.Handler
}

// NewServer builds the router
func NewServer(opts Options) *Server {
	s := &Server{
		catalog:   opts.Catalog,
		ledger:    opts.Ledger,
		auth:      opts.Auth,
		storage:   opts.Storage,
		publisher: opts.Publisher,
		health:    opts.Health,
		log:       opts.Log,
	}
	if s.publisher == nil {
		s.publisher = events.NewNopPublisher(opts.Log)
	}

	engine := gin.New()
	engine.Use(requestID(), requestLogger(opts.Log), recovery(opts.Log))
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.Middleware())
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	s.engine = engine
	s.routes()

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(engine)

	return s
}

func (s *Server) routes() {
	requireAuth := auth.RequireAuth(s.auth)
	requireAdmin := auth.RequireRole(db.RoleAdmin)

	s.engine.GET("/healthz", s.healthz)

	s.engine.POST("/register", auth.OptionalAuth(s.auth), s.register)
	s.engine.POST("/login", s.login)
	s.engine.POST("/logout", requireAuth, s.logout)
	s.engine.GET("/getUsers", s.listUsers)
	s.engine.POST("/users/:id/role", requireAuth, requireAdmin, s.grantRole)

	book := s.engine.Group("/book")
	{
		book.POST("/add-book", s.addBook)
		book.POST("/update-book/:id", s.updateBook)
		book.POST("/delete-book/:id", s.deleteBook)
		book.GET("/AllBooks", s.listBooks)

		book.POST("/requestRents", s.requestRent)
		book.GET("/getRentRequest", s.listRentRequests)
		book.POST("/rentRequest/:id/review", requireAuth, requireAdmin, s.reviewRentRequest)
	}

	if s.storage != nil {
		s.engine.Static("/uploads", s.storage.Dir())
	}
}

// Handler returns the router wrapped in the CORS policy
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if name, err := s.health.Check(c.Request.Context()); err != nil {
			c.String(http.StatusServiceUnavailable, "unhealthy: %s check failed", name)
			return
		}
	}
	c.String(http.StatusOK, "healthy")
}

// publish sends an event in the background; failures are logged only
func (s *Server) publish(c *gin.Context, eventType string, payload map[string]interface{}) {
	correlationID := events.CorrelationID(c.Request.Context())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		ctx = events.WithCorrelationID(ctx, correlationID)

		if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
			s.log.Error("Failed to publish event",
				zap.String("event_type", eventType),
				zap.Error(err),
			)
		}
	}()
}
