package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/slotting-service/internal/application"
	kafkaInfra "github.com/wms-platform/slotting-service/internal/infrastructure/kafka"
	mongoRepo "github.com/wms-platform/slotting-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/slotting-service/internal/realtime"
	"github.com/wms-platform/slotting-service/internal/scoring"
	"github.com/wms-platform/slotting-service/pkg/errors"
	"github.com/wms-platform/slotting-service/pkg/events"
	"github.com/wms-platform/slotting-service/pkg/kafka"
	"github.com/wms-platform/slotting-service/pkg/logging"
	"github.com/wms-platform/slotting-service/pkg/metrics"
	"github.com/wms-platform/slotting-service/pkg/middleware"
	"github.com/wms-platform/slotting-service/pkg/mongodb"
	"github.com/wms-platform/slotting-service/pkg/tracing"
)

const serviceName = "slotting-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting slotting-service API")

	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(config.Kafka)
	cbProducer := kafka.NewCircuitBreakerProducer(kafkaProducer, logger.Logger)
	defer cbProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := events.NewFactory("/slotting-service")
	publisher := kafkaInfra.NewEventPublisher(cbProducer, eventFactory, logger, m)

	// Repositories
	db := mongoClient.Database()
	movePlans := mongoRepo.NewMovePlanRepository(db)
	alerts := mongoRepo.NewSpikeAlertRepository(db)
	locations := mongoRepo.NewLocationRepository(db)
	skus := mongoRepo.NewSKURepository(db)
	rules := mongoRepo.NewServiceRuleRepository(db)
	warehouses := mongoRepo.NewWarehouseRepository(db)
	pickHistory := mongoRepo.NewPickHistoryRepository(db)
	txRunner := mongoRepo.NewTxRunner(mongoClient)

	// Scoring engine with configurable weights
	weights, err := scoring.LoadWeights(getEnv("SCORING_WEIGHTS_FILE", ""))
	if err != nil {
		logger.WithError(err).Error("Failed to load scoring weights")
		os.Exit(1)
	}
	engine := scoring.NewEngine(locations, skus, rules, warehouses, pickHistory, weights, logger)

	// Realtime hub plus the relay bridge fed by worker processes
	hub := realtime.NewHub(logger, m)

	bridgeCtx, stopBridge := context.WithCancel(ctx)
	defer stopBridge()
	bridge := realtime.NewBridge(config.Kafka.Brokers, hub, logger)
	defer bridge.Close()
	go bridge.Run(bridgeCtx)

	// Application service
	replenService := application.NewReplenService(
		movePlans,
		alerts,
		engine,
		txRunner,
		publisher,
		hub,
		m,
		logger,
	)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1/replen")
	{
		api.GET("/tonight-moves/:warehouseId", tonightMovesHandler(replenService, logger))
		api.GET("/live-suggestions/:warehouseId", liveSuggestionsHandler(replenService, logger))
		api.GET("/impact-summary/:warehouseId", impactSummaryHandler(replenService, logger))
		api.GET("/score/:warehouseId/:skuId/:locationId", explainScoreHandler(replenService, logger))
		api.POST("/moves/:moveId/complete", completeMoveHandler(replenService, logger))
		api.GET("/ws", hub.ServeWS)
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8010"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "slotting_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
			WriteTimeout:  5 * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HTTP Handlers

func tonightMovesHandler(service *application.ReplenService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.GetTonightMovesQuery{WarehouseID: c.Param("warehouseId")}

		moves, err := service.GetTonightMoves(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"moves": moves, "count": len(moves)})
	}
}

func liveSuggestionsHandler(service *application.ReplenService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.GetLiveSuggestionsQuery{WarehouseID: c.Param("warehouseId")}

		suggestions, err := service.GetLiveSuggestions(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
	}
}

func completeMoveHandler(service *application.ReplenService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			TravelSecondsSaved   float64 `json:"travelSecondsSaved"`
			PickSecondsSaved     float64 `json:"pickSecondsSaved"`
			ErgonomicImprovement float64 `json:"ergonomicImprovement"`
			Notes                string  `json:"notes"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cmd := application.CompleteMoveCommand{
			MoveID:               c.Param("moveId"),
			UserID:               middleware.GetUserID(c),
			TravelSecondsSaved:   req.TravelSecondsSaved,
			PickSecondsSaved:     req.PickSecondsSaved,
			ErgonomicImprovement: req.ErgonomicImprovement,
			Notes:                req.Notes,
		}

		move, err := service.CompleteMove(c.Request.Context(), cmd)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, move)
	}
}

func impactSummaryHandler(service *application.ReplenService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		windowDays := 0
		if v := c.Query("windowDays"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 {
				responder.RespondBadRequest("windowDays must be a non-negative integer")
				return
			}
			windowDays = parsed
		}

		query := application.GetImpactSummaryQuery{
			WarehouseID: c.Param("warehouseId"),
			WindowDays:  windowDays,
		}

		summary, err := service.GetImpactSummary(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func explainScoreHandler(service *application.ReplenService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.ExplainScoreQuery{
			WarehouseID: c.Param("warehouseId"),
			SKUID:       c.Param("skuId"),
			LocationID:  c.Param("locationId"),
		}

		score, err := service.ExplainScore(c.Request.Context(), query)
		if err != nil {
			if appErr, ok := err.(*errors.AppError); ok {
				responder.RespondWithAppError(appErr)
			} else {
				responder.RespondInternalError(err)
			}
			return
		}

		c.JSON(http.StatusOK, score)
	}
}
