package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/wms-platform/slotting-service/internal/activities"
	kafkaInfra "github.com/wms-platform/slotting-service/internal/infrastructure/kafka"
	mongoRepo "github.com/wms-platform/slotting-service/internal/infrastructure/mongodb"
	"github.com/wms-platform/slotting-service/internal/jobs"
	"github.com/wms-platform/slotting-service/internal/realtime"
	"github.com/wms-platform/slotting-service/internal/recommend"
	"github.com/wms-platform/slotting-service/internal/scoring"
	"github.com/wms-platform/slotting-service/internal/workflows"
	"github.com/wms-platform/slotting-service/pkg/events"
	"github.com/wms-platform/slotting-service/pkg/kafka"
	"github.com/wms-platform/slotting-service/pkg/logging"
	"github.com/wms-platform/slotting-service/pkg/metrics"
	"github.com/wms-platform/slotting-service/pkg/mongodb"
	"github.com/wms-platform/slotting-service/pkg/temporal"
)

const serviceName = "slotting-service"

// Schedule cadence for the recurring jobs
const (
	nightlyPlanCron   = "0 2 * * *"
	spikeScanInterval = 30 * time.Minute
)

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting slotting-service worker")

	config := loadConfig()
	ctx := context.Background()

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(config.Kafka)
	cbProducer := kafka.NewCircuitBreakerProducer(kafkaProducer, logger.Logger)
	defer cbProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := events.NewFactory("/slotting-service")
	publisher := kafkaInfra.NewEventPublisher(cbProducer, eventFactory, logger, m)
	broadcaster := realtime.NewRelayBroadcaster(cbProducer, eventFactory, logger)

	// Repositories
	db := mongoClient.Database()
	movePlans := mongoRepo.NewMovePlanRepository(db)
	alerts := mongoRepo.NewSpikeAlertRepository(db)
	locations := mongoRepo.NewLocationRepository(db)
	skus := mongoRepo.NewSKURepository(db)
	rules := mongoRepo.NewServiceRuleRepository(db)
	warehouses := mongoRepo.NewWarehouseRepository(db)
	pickHistory := mongoRepo.NewPickHistoryRepository(db)

	// Scoring and recommendation stack
	weights, err := scoring.LoadWeights(getEnv("SCORING_WEIGHTS_FILE", ""))
	if err != nil {
		logger.WithError(err).Error("Failed to load scoring weights")
		os.Exit(1)
	}
	engine := scoring.NewEngine(locations, skus, rules, warehouses, pickHistory, weights, logger)
	generator := recommend.NewGenerator(engine, logger)

	// Scheduled jobs
	planner := jobs.NewNightlyPlanner(
		engine, generator, movePlans, warehouses, pickHistory,
		publisher, broadcaster, m, logger,
		jobs.DefaultNightlyPlannerConfig(),
	)
	detector := jobs.NewSpikeDetector(
		engine, generator, movePlans, alerts, warehouses, pickHistory,
		publisher, broadcaster, m, logger,
		jobs.DefaultSpikeDetectorConfig(),
	)

	// Initialize Temporal client
	temporalClient, err := temporal.NewClient(ctx, config.Temporal)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort)

	// Create worker
	workerOpts := temporal.DefaultWorkerOptions(temporal.TaskQueues.Slotting)
	w := temporalClient.NewWorker(workerOpts)

	// Register workflows
	w.RegisterWorkflow(workflows.NightlyPlanWorkflow)
	w.RegisterWorkflow(workflows.SpikeScanWorkflow)
	logger.Info("Registered workflows", "workflows", []string{
		temporal.WorkflowNames.NightlyPlan,
		temporal.WorkflowNames.SpikeScan,
	})

	// Register activities
	replenActivities := activities.NewReplenActivities(planner, detector, logger)
	w.RegisterActivity(replenActivities.RunNightlyPlan)
	w.RegisterActivity(replenActivities.RunSpikeScan)
	logger.Info("Registered activities")

	// Ensure recurring schedules exist
	if err := ensureSchedules(ctx, temporalClient, logger); err != nil {
		logger.WithError(err).Error("Failed to create schedules")
		os.Exit(1)
	}

	// Start worker in background
	go func() {
		if err := w.Run(nil); err != nil {
			logger.WithError(err).Error("Worker failed")
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.Slotting)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
}

// ensureSchedules registers the nightly plan and spike scan schedules.
// Schedules surviving from a previous deployment are left untouched.
func ensureSchedules(ctx context.Context, tc *temporal.Client, logger *logging.Logger) error {
	sc := tc.ScheduleClient()

	_, err := sc.Create(ctx, client.ScheduleOptions{
		ID: temporal.ScheduleIDs.NightlyPlan,
		Spec: client.ScheduleSpec{
			CronExpressions: []string{nightlyPlanCron},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        "nightly-plan",
			Workflow:  temporal.WorkflowNames.NightlyPlan,
			TaskQueue: temporal.TaskQueues.Slotting,
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err != nil && !errors.Is(err, sdktemporal.ErrScheduleAlreadyRunning) {
		return err
	}
	logger.Info("Nightly plan schedule ensured", "cron", nightlyPlanCron)

	_, err = sc.Create(ctx, client.ScheduleOptions{
		ID: temporal.ScheduleIDs.SpikeScan,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: spikeScanInterval}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        "spike-scan",
			Workflow:  temporal.WorkflowNames.SpikeScan,
			TaskQueue: temporal.TaskQueues.Slotting,
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if err != nil && !errors.Is(err, sdktemporal.ErrScheduleAlreadyRunning) {
		return err
	}
	logger.Info("Spike scan schedule ensured", "every", spikeScanInterval.String())

	return nil
}

// Config holds application configuration
type Config struct {
	MongoDB  *mongodb.Config
	Kafka    *kafka.Config
	Temporal *temporal.Config
}

func loadConfig() *Config {
	return &Config{
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
		Temporal: &temporal.Config{
			HostPort:  getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
			Identity:  "slotting-worker",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
