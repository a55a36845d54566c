package activities

import (
	"context"

	"github.com/wms-platform/slotting-service/internal/jobs"
	"github.com/wms-platform/slotting-service/pkg/logging"
)

// ReplenActivities wraps the scheduled replenishment jobs for Temporal
type ReplenActivities struct {
	planner  *jobs.NightlyPlanner
	detector *jobs.SpikeDetector
	logger   *logging.Logger
}

// NewReplenActivities creates a ReplenActivities instance
func NewReplenActivities(planner *jobs.NightlyPlanner, detector *jobs.SpikeDetector, logger *logging.Logger) *ReplenActivities {
	return &ReplenActivities{
		planner:  planner,
		detector: detector,
		logger:   logger,
	}
}

// RunNightlyPlan executes one nightly planning pass
func (a *ReplenActivities) RunNightlyPlan(ctx context.Context) (jobs.RunResult, error) {
	return a.planner.Run(ctx)
}

// RunSpikeScan executes one spike detection pass
func (a *ReplenActivities) RunSpikeScan(ctx context.Context) (jobs.ScanResult, error) {
	return a.detector.Run(ctx)
}
