package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/consult/consult/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) Unread(ctx context.Context, userID uuid.UUID) ([]*Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead marks a single notification read. Only the owner may do so;
// marking an already-read notification is a no-op.
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "notification not found", err)
	}
	if n.UserID != userID {
		return apperr.New(apperr.Unauthorized, "notification does not belong to user")
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "notification not found", err)
	}
	if n.UserID != userID {
		return apperr.New(apperr.Unauthorized, "notification does not belong to user")
	}
	return s.repo.Delete(ctx, id)
}
