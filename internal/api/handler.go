package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"news-trader/internal/engine"
	"news-trader/internal/events"
	"news-trader/internal/monitor"
	"news-trader/pkg/db"
)

// Journal is the read side of the order and directive log.
type Journal interface {
	ListOrders(ctx context.Context, limit int) ([]db.Order, error)
	ListDirectives(ctx context.Context, limit int) ([]db.Directive, error)
}

// Server wires HTTP endpoints around the engine and the event bus.
type Server struct {
	Router  *gin.Engine
	Bus     *events.Bus
	Journal Journal // optional
	Engine  engine.Reader
	Metrics *monitor.SystemMetrics
	Meta    SystemMeta
}

// SystemMeta describes runtime status exposed to the UI.
type SystemMeta struct {
	DryRun  bool
	Venue   string
	Version string
}

func NewServer(bus *events.Bus, journal Journal, eng engine.Reader, metrics *monitor.SystemMetrics, meta SystemMeta) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(metrics))
	r.Use(RateLimitMiddleware(newIPLimiter(20, 50, 5*time.Minute)))
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:  r,
		Bus:     bus,
		Journal: journal,
		Engine:  eng,
		Metrics: metrics,
		Meta:    meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)
	s.Router.GET("/metrics", s.getPromMetrics)

	api := s.Router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/balances", s.getBalances)
		api.GET("/positions", s.getPositions)
		api.GET("/orders", s.getOrders)
		api.GET("/directives", s.getDirectives)
		api.GET("/metrics", s.getMetrics)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.Router
}
