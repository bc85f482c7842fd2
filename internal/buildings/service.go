package buildings

import "context"

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	List(ctx context.Context, filter Filter) ([]Building, error)
}

// Service answers building catalog queries.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the buildings matching the filter. An empty filter returns
// every building.
func (s *Service) List(ctx context.Context, filter Filter) ([]Building, error) {
	return s.repo.List(ctx, filter)
}
