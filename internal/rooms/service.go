package rooms

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]Room, error)
	SearchAvailable(ctx context.Context, filter SearchFilter) ([]Room, error)
}

// TxRepository groups the admin check, the mutation and the log write into
// one transaction so a concurrent demotion cannot race a privileged write.
type TxRepository interface {
	RequireAdmin(ctx context.Context, userID uuid.UUID) error
	InsertRoom(ctx context.Context, room Room) (uuid.UUID, error)
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, roomID uuid.UUID) (Room, error)
	DeleteRoom(ctx context.Context, roomID uuid.UUID) error
	LogAdd(ctx context.Context, actorID uuid.UUID, room Room) error
	LogEdit(ctx context.Context, actorID uuid.UUID, room Room) error
	LogDelete(ctx context.Context, actorID uuid.UUID, room Room) error
}

// Service coordinates catalog reads and admin mutations.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ListByBuilding returns the rooms of a building.
func (s *Service) ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]Room, error) {
	if buildingID == uuid.Nil {
		return nil, ErrMissingFields
	}
	return s.repo.ListByBuilding(ctx, buildingID)
}

// SearchAvailable lists rooms matching the filter that have no overlapping
// non-cancelled booking in the requested window. A half-specified or absent
// window collapses to "available right now".
func (s *Service) SearchAvailable(ctx context.Context, filter SearchFilter) ([]Room, error) {
	if filter.Start == nil || filter.End == nil {
		now := s.now()
		filter.Start = &now
		filter.End = &now
	}
	return s.repo.SearchAvailable(ctx, filter)
}

// AddRoom creates a room. Admin only; the AdminAddLog row lands in the same
// transaction as the insert.
func (s *Service) AddRoom(ctx context.Context, actorID uuid.UUID, room Room) (uuid.UUID, error) {
	if actorID == uuid.Nil || strings.TrimSpace(room.Name) == "" || room.Capacity <= 0 || room.BuildingID == uuid.Nil {
		return uuid.Nil, ErrMissingFields
	}
	var roomID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.RequireAdmin(ctx, actorID); err != nil {
			return err
		}
		id, err := tx.InsertRoom(ctx, room)
		if err != nil {
			return err
		}
		roomID = id
		room.ID = id
		return tx.LogAdd(ctx, actorID, room)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return roomID, nil
}

// EditRoom renames or resizes a room. Admin only, audited.
func (s *Service) EditRoom(ctx context.Context, actorID uuid.UUID, room Room) error {
	if actorID == uuid.Nil || room.ID == uuid.Nil || strings.TrimSpace(room.Name) == "" || room.Capacity <= 0 {
		return ErrMissingFields
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.RequireAdmin(ctx, actorID); err != nil {
			return err
		}
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}
		return tx.LogEdit(ctx, actorID, room)
	})
}

// DeleteRoom removes a room. Admin only; the snapshot recorded in the
// delete log is read before the row disappears.
func (s *Service) DeleteRoom(ctx context.Context, actorID, roomID uuid.UUID) error {
	if actorID == uuid.Nil || roomID == uuid.Nil {
		return ErrMissingFields
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.RequireAdmin(ctx, actorID); err != nil {
			return err
		}
		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if err := tx.DeleteRoom(ctx, roomID); err != nil {
			return err
		}
		return tx.LogDelete(ctx, actorID, room)
	})
}
