package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brydenu/blfs-cafe-sub001/internal/bus"
	"github.com/brydenu/blfs-cafe-sub001/internal/catalog"
	"github.com/brydenu/blfs-cafe-sub001/internal/config"
	"github.com/brydenu/blfs-cafe-sub001/internal/database"
	"github.com/brydenu/blfs-cafe-sub001/internal/monitoring"
	"github.com/brydenu/blfs-cafe-sub001/internal/orders"
	"github.com/brydenu/blfs-cafe-sub001/internal/queue"
	"github.com/brydenu/blfs-cafe-sub001/internal/server"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	if cfg.Schedule.Timezone != "America/Los_Angeles" {
		log.Printf("Warning: schedule timezone %q is not supported; classification uses America/Los_Angeles", cfg.Schedule.Timezone)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	eventBus := bus.New()
	defer eventBus.Close()

	orderSvc := orders.NewService(db, catalog.NewStore(db), eventBus)
	ranker := queue.NewRanker(queue.NewGormStore(db), cfg.Queue.PerItemMinutes, cfg.Queue.BaseMinutes)
	monitor := monitoring.NewMonitor()

	api := server.New(db, orderSvc, ranker, eventBus, monitor, cfg.Auth.JWTSecret)

	go startMetricsServer(cfg.Server.MetricsPort)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting API server on port %d", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func startMetricsServer(port int) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
