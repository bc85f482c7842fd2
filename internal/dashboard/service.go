package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts the aggregation queries.
type RepositoryPort interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	GetMetrics(ctx context.Context, userID uuid.UUID, now time.Time) (Metrics, error)
	GetBookingFrequency(ctx context.Context, userID uuid.UUID, filter FrequencyFilter) ([]FrequencyBucket, error)
}

// CachePort caches computed metrics between writes. Both operations are best
// effort; a cache failure falls back to the store.
type CachePort interface {
	GetMetrics(ctx context.Context, userID uuid.UUID) (Metrics, bool)
	SetMetrics(ctx context.Context, userID uuid.UUID, m Metrics)
}

// Service computes dashboard aggregations. Read-only; runs at the store's
// default isolation and may trail writes committed after the read began.
type Service struct {
	repo  RepositoryPort
	cache CachePort
	now   func() time.Time
}

// NewService builds a Service. cache may be nil.
func NewService(repo RepositoryPort, cache CachePort) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetDashboardMetrics returns summary counts for the user. Fails only when
// the user id is missing or the user does not exist.
func (s *Service) GetDashboardMetrics(ctx context.Context, userID uuid.UUID) (Metrics, error) {
	if userID == uuid.Nil {
		return Metrics{}, ErrMissingUser
	}
	if s.cache != nil {
		if m, ok := s.cache.GetMetrics(ctx, userID); ok {
			return m, nil
		}
	}
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return Metrics{}, err
	}
	if !exists {
		return Metrics{}, ErrUnknownUser
	}
	m, err := s.repo.GetMetrics(ctx, userID, s.now())
	if err != nil {
		return Metrics{}, err
	}
	if s.cache != nil {
		s.cache.SetMetrics(ctx, userID, m)
	}
	return m, nil
}

// GetBookingFrequency buckets the user's bookings per day within the filter
// range, most recent first, capped to filter.Limit buckets when positive.
// Empty results are a success.
func (s *Service) GetBookingFrequency(ctx context.Context, userID uuid.UUID, filter FrequencyFilter) ([]FrequencyBucket, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUser
	}
	if filter.Limit < 0 {
		return nil, ErrBadLimit
	}
	return s.repo.GetBookingFrequency(ctx, userID, filter)
}

// Warm recomputes and caches metrics for a user. Used by the background
// warmup job.
func (s *Service) Warm(ctx context.Context, userID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	m, err := s.repo.GetMetrics(ctx, userID, s.now())
	if err != nil {
		return err
	}
	s.cache.SetMetrics(ctx, userID, m)
	return nil
}
