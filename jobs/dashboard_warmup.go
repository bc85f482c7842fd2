package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/dashboard"
	jobmetrics "github.com/atrium-app/atrium/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const (
	// TaskTypeDashboardWarmup pre-populates dashboard metric caches.
	TaskTypeDashboardWarmup = "dashboard:warmup"
)

// NewDashboardWarmupTask constructs an Asynq task for the cron scheduler.
func NewDashboardWarmupTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskTypeDashboardWarmup, nil, asynq.Queue(QueueDefault)), nil
}

// DashboardWarmupJob recomputes cached metrics for users with upcoming
// bookings so the first dashboard load after the cache expires stays fast.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboardSvc *dashboard.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: dashboardSvc, Pool: pool, Logger: logger, Metrics: metrics}
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	if len(t.Payload()) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskTypeDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	userIDs, err := j.activeUsers(ctx)
	if err != nil {
		resultErr = err
		j.Logger.Error("load warmup users", slog.Any("error", err))
		return resultErr
	}
	if len(userIDs) == 0 {
		j.Logger.Info("no users to warm")
		return resultErr
	}

	warmed := 0
	for _, userID := range userIDs {
		if err := j.Dashboard.Warm(ctx, userID); err != nil {
			resultErr = err
			j.Logger.Error("warm user metrics",
				slog.String("user_id", userID.String()), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}
	j.Logger.Info("dashboard warmup complete", slog.Int("users", warmed))
	return resultErr
}

// activeUsers lists users participating in a future non-cancelled booking.
func (j *DashboardWarmupJob) activeUsers(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT DISTINCT "userID"
		FROM "BookingParticipants"
		WHERE NOT "cancelled" AND "startTime" >= now()`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
