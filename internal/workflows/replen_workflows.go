package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/slotting-service/internal/jobs"
	platformtemporal "github.com/wms-platform/slotting-service/pkg/temporal"
)

func scheduledJobContext(ctx workflow.Context) workflow.Context {
	opts := platformtemporal.SingleAttemptActivityOptions()
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: opts.StartToCloseTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    opts.RetryPolicy.InitialInterval,
			BackoffCoefficient: opts.RetryPolicy.BackoffCoefficient,
			MaximumInterval:    opts.RetryPolicy.MaximumInterval,
			MaximumAttempts:    opts.RetryPolicy.MaximumAttempts,
		},
	})
}

// NightlyPlanWorkflow runs one nightly planning pass. Failed runs are not
// retried; the next scheduled run plans from current state.
func NightlyPlanWorkflow(ctx workflow.Context) (*jobs.RunResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting nightly plan workflow")

	ctx = scheduledJobContext(ctx)

	var result jobs.RunResult
	if err := workflow.ExecuteActivity(ctx, "RunNightlyPlan").Get(ctx, &result); err != nil {
		logger.Error("Nightly plan run failed", "error", err)
		return nil, err
	}

	logger.Info("Nightly plan workflow completed",
		"warehouses", result.Warehouses,
		"plansCreated", result.PlansCreated,
		"failedWarehouses", result.FailedWarehouses,
	)
	return &result, nil
}

// SpikeScanWorkflow runs one spike detection pass. Same single-attempt
// policy as the nightly plan.
func SpikeScanWorkflow(ctx workflow.Context) (*jobs.ScanResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting spike scan workflow")

	ctx = scheduledJobContext(ctx)

	var result jobs.ScanResult
	if err := workflow.ExecuteActivity(ctx, "RunSpikeScan").Get(ctx, &result); err != nil {
		logger.Error("Spike scan run failed", "error", err)
		return nil, err
	}

	logger.Info("Spike scan workflow completed",
		"warehouses", result.Warehouses,
		"pairsChecked", result.PairsChecked,
		"spikesDetected", result.SpikesDetected,
		"alertsUpdated", result.AlertsUpdated,
		"failedWarehouses", result.FailedWarehouses,
	)
	return &result, nil
}
