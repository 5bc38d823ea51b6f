package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"advocacy-backend/config"
	"advocacy-backend/database"
	"advocacy-backend/email"
	"advocacy-backend/events"
	"advocacy-backend/geo"
	"advocacy-backend/handlers"
	"advocacy-backend/live"
	"advocacy-backend/metrics"
	"advocacy-backend/middleware"
	"advocacy-backend/outbox"
	"advocacy-backend/syncer"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	outboxInterval = flag.Duration("outbox_interval", 30*time.Second, "Interval to poll the notification outbox")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	cfg := config.Load()
	metrics.Register()

	db, err := setupDatabase(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.InitializeSchema(db); err != nil {
		log.WithError(err).Fatal("Failed to initialize database schema")
	}

	submissions := database.NewSubmissionService(db)
	petitions := database.NewPetitionService(db)
	outboxStore := database.NewOutboxService(db)

	syncService, err := syncer.NewService(cfg, submissions)
	if err != nil {
		log.WithError(err).Fatal("Failed to create sync service")
	}

	sender := email.NewSender(cfg)
	dispatcher := outbox.NewDispatcher(outboxStore, sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx, *outboxInterval)

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Warn("AMQP unavailable, event publishing disabled")
		} else {
			defer publisher.Close()
		}
	}

	hub := live.NewHub()
	go hub.Run()

	h := handlers.NewHandlers(cfg, submissions, petitions, outboxStore, syncService,
		geo.NewClient(), publisher, hub)

	router := setupRouter(h, cfg)

	log.Infof("Advocacy backend starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func setupDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	// The database container may come up after us; retry the ping with
	// exponential backoff before giving up.
	deadline := time.Now().Add(60 * time.Second)
	waitInterval := time.Second
	for {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(pingCtx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database ping timeout: %w", pingErr)
		}
		log.WithError(pingErr).Warnf("Database connection failed, retrying in %v", waitInterval)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 15*time.Second {
			waitInterval = 15 * time.Second
		}
	}

	return db, nil
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.SetTrustedProxies(cfg.TrustedProxies)

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/api/v3")
	{
		public.GET("/site-config", h.SiteConfig)
		public.POST("/submissions/:kind", h.CreateSubmission)
		public.GET("/petitions", h.ListPetitions)
		public.GET("/petitions/:id", h.GetPetition)
		public.POST("/petitions/:id/signatures", h.SignPetition)

		public.POST("/auth/login", h.Login)

		// The sync endpoint keeps the original function's contract:
		// POST with no body, anything else is 405.
		public.POST("/sync/submissions", h.SyncSubmissions)
	}

	admin := router.Group("/api/v3/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	// The live feed is a websocket upgrade; keep it off the gzip path.
	admin.GET("/live", h.LiveFeed)

	admin.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		admin.GET("/submissions/:kind", h.ListSubmissions)
		admin.GET("/submissions/:kind/export", h.ExportSubmissions)
		admin.GET("/submissions/:kind/:id", h.GetSubmission)
		admin.DELETE("/submissions/:kind", h.DeleteAllSubmissions)
		admin.DELETE("/submissions/:kind/:id", h.DeleteSubmission)

		admin.POST("/petitions", h.CreatePetition)
		admin.GET("/petitions/:id/signatures", h.ListSignatures)
		admin.GET("/petitions/:id/signatures/export", h.ExportSignatures)
		admin.DELETE("/petitions/:id/signatures", h.DeleteAllSignatures)
		admin.DELETE("/petitions/:id/signatures/:sid", h.DeleteSignature)
	}

	return router
}
