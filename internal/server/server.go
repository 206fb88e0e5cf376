// Package server exposes the order core over HTTP and websockets.
package server

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"

	"github.com/brydenu/blfs-cafe-sub001/internal/bus"
	"github.com/brydenu/blfs-cafe-sub001/internal/monitoring"
	"github.com/brydenu/blfs-cafe-sub001/internal/orders"
	"github.com/brydenu/blfs-cafe-sub001/internal/queue"
)

var hhmmPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Server wires the gin router to the order core. The bus is an explicit
// dependency shared with every publisher; there is no ambient connection.
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	orders    *orders.Service
	ranker    *queue.Ranker
	bus       *bus.Bus
	monitor   *monitoring.Monitor
	jwtSecret string
	now       func() time.Time
}

// New creates a server instance and registers all routes.
func New(db *gorm.DB, orderSvc *orders.Service, ranker *queue.Ranker, b *bus.Bus, monitor *monitoring.Monitor, jwtSecret string) *Server {
	registerValidators()

	s := &Server{
		router:    gin.Default(),
		db:        db,
		orders:    orderSvc,
		ranker:    ranker,
		bus:       b,
		monitor:   monitor,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}

	s.setupRoutes()
	return s
}

// registerValidators adds the "hhmm" rule used by schedule payloads to
// gin's binding validator.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return hhmmPattern.MatchString(fl.Field().String())
		})
	}
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	api.Use(s.identityMiddleware())
	{
		api.POST("/orders", s.handlePlaceOrder)
		api.GET("/orders/:code", s.handleGetOrder)
		api.GET("/orders/:code/rank", s.handleGetRank)
		api.POST("/orders/:code/items/:id/complete", requireStaff(), s.handleCompleteItem)
		api.POST("/orders/:code/items/:id/cancel", s.handleCancelItem)

		api.GET("/board", s.handleBoard)

		api.GET("/schedule", s.handleGetSchedule)
		api.GET("/schedule/status", s.handleScheduleStatus)
		api.PUT("/schedule/:weekday", requireStaff(), s.handlePutScheduleRule)

		api.GET("/stats", s.handleStats)
	}
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// SetClock overrides the time source used for schedule gating, for tests.
func (s *Server) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
