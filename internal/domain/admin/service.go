package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consult/consult/internal/domain/application"
	"github.com/consult/consult/internal/domain/notification"
	"github.com/consult/consult/internal/domain/user"
	"github.com/consult/consult/internal/platform/apperr"
)

// UserAdmin is the slice of the user directory the admin service needs.
type UserAdmin interface {
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*user.Doctor, error)
	ListPendingDoctors(ctx context.Context, limit, offset int) ([]*user.Doctor, int, error)
	ListByRole(ctx context.Context, role user.Role, limit, offset int) ([]*user.User, int, error)
	ListIDsByRole(ctx context.Context, role user.Role) ([]uuid.UUID, error)
	SetDoctorVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
	CountByRole(ctx context.Context) (map[user.Role]int, error)
}

// ApplicationStats provides application counts for analytics.
type ApplicationStats interface {
	CountByStatus(ctx context.Context) (map[application.Status]int, error)
}

// PaymentStats provides payment totals for analytics.
type PaymentStats interface {
	Totals(ctx context.Context) (count int, volume float64, err error)
}

// Service implements platform administration: doctor verification, account
// suspension, analytics, and broadcast notifications.
type Service struct {
	users      UserAdmin
	apps       ApplicationStats
	payments   PaymentStats
	dispatcher notification.Dispatcher
	logger     zerolog.Logger
}

func NewService(users UserAdmin, apps ApplicationStats, payments PaymentStats, dispatcher notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{users: users, apps: apps, payments: payments, dispatcher: dispatcher, logger: logger}
}

// ApproveDoctor marks the doctor verified and notifies them.
func (s *Service) ApproveDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if _, err := s.users.GetDoctor(ctx, doctorID); err != nil {
		return apperr.Wrap(apperr.NotFound, "doctor not found", err)
	}
	if err := s.users.SetDoctorVerified(ctx, doctorID, true); err != nil {
		return fmt.Errorf("verify doctor: %w", err)
	}
	s.notify(ctx, doctorID, "Account Approved",
		"Your doctor account has been approved. You can now receive consultation requests.",
		notification.CategoryDoctorApproved)
	return nil
}

// RejectDoctor deactivates the doctor's account and notifies them with the
// reason.
func (s *Service) RejectDoctor(ctx context.Context, doctorID uuid.UUID, reason string) error {
	if _, err := s.users.GetDoctor(ctx, doctorID); err != nil {
		return apperr.Wrap(apperr.NotFound, "doctor not found", err)
	}
	if err := s.users.SetUserActive(ctx, doctorID, false); err != nil {
		return fmt.Errorf("deactivate doctor: %w", err)
	}

	message := "Your doctor account application has been rejected."
	if reason != "" {
		message = fmt.Sprintf("Your doctor account application has been rejected. Reason: %s", reason)
	}
	s.notify(ctx, doctorID, "Account Rejected", message, notification.CategoryDoctorRejected)
	return nil
}

// BulkApproveRejectDoctors applies the action to each id independently.
// One failure never aborts the rest; the result carries per-item outcomes
// and the success/failure counts.
func (s *Service) BulkApproveRejectDoctors(ctx context.Context, doctorIDs []uuid.UUID, action BulkAction, reason string) (*BulkResult, error) {
	if !action.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid bulk action: %s", action)
	}
	if len(doctorIDs) == 0 {
		return nil, apperr.New(apperr.Validation, "doctor_ids is required")
	}

	result := &BulkResult{Results: make([]BulkItemResult, 0, len(doctorIDs))}
	for _, id := range doctorIDs {
		var err error
		if action == BulkApprove {
			err = s.ApproveDoctor(ctx, id)
		} else {
			err = s.RejectDoctor(ctx, id, reason)
		}

		item := BulkItemResult{DoctorID: id, OK: err == nil}
		if err != nil {
			item.Error = err.Error()
			result.FailureCount++
		} else {
			result.SuccessCount++
		}
		result.Results = append(result.Results, item)
	}
	return result, nil
}

// SuspendUser deactivates any account and warns the user.
func (s *Service) SuspendUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return apperr.Wrap(apperr.NotFound, "user not found", err)
	}
	if err := s.users.SetUserActive(ctx, userID, false); err != nil {
		return fmt.Errorf("suspend user: %w", err)
	}
	s.notify(ctx, userID, "Account Suspended",
		"Your account has been suspended. Contact support for assistance.",
		notification.CategoryWarning)
	return nil
}

// ActivateUser reactivates a suspended account.
func (s *Service) ActivateUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return apperr.Wrap(apperr.NotFound, "user not found", err)
	}
	if err := s.users.SetUserActive(ctx, userID, true); err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	s.notify(ctx, userID, "Account Activated",
		"Your account has been reactivated.", notification.CategorySuccess)
	return nil
}

func (s *Service) PendingDoctors(ctx context.Context, limit, offset int) ([]*user.Doctor, int, error) {
	return s.users.ListPendingDoctors(ctx, limit, offset)
}

func (s *Service) UsersByRole(ctx context.Context, role user.Role, limit, offset int) ([]*user.User, int, error) {
	if !role.Valid() {
		return nil, 0, apperr.Newf(apperr.Validation, "invalid role: %s", role)
	}
	return s.users.ListByRole(ctx, role, limit, offset)
}

// Analytics assembles the dashboard counters from the user, application,
// and payment registries.
func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	roleCounts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	appCounts, err := s.apps.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	payCount, volume, err := s.payments.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("payment totals: %w", err)
	}

	return &Analytics{
		TotalPatients:         roleCounts[user.RolePatient],
		TotalDoctors:          roleCounts[user.RoleDoctor],
		TotalAdmins:           roleCounts[user.RoleAdmin],
		PendingApplications:   appCounts[application.StatusPending],
		ReviewedApplications:  appCounts[application.StatusReviewed],
		ApprovedApplications:  appCounts[application.StatusApproved],
		RejectedApplications:  appCounts[application.StatusRejected],
		CompletedApplications: appCounts[application.StatusCompleted],
		SuccessfulPayments:    payCount,
		PaymentVolume:         volume,
	}, nil
}

// SendBulkNotification broadcasts to every active user of the target role,
// or to everyone when role is empty.
func (s *Service) SendBulkNotification(ctx context.Context, title, message string, category notification.Category, targetRole user.Role) (int, error) {
	if title == "" || message == "" {
		return 0, apperr.New(apperr.Validation, "title and message are required")
	}
	if category == "" {
		category = notification.CategoryGeneral
	}
	if !category.Valid() {
		return 0, apperr.Newf(apperr.Validation, "invalid notification type: %s", category)
	}

	roles := []user.Role{user.RolePatient, user.RoleDoctor, user.RoleAdmin}
	if targetRole != "" {
		if !targetRole.Valid() {
			return 0, apperr.Newf(apperr.Validation, "invalid role: %s", targetRole)
		}
		roles = []user.Role{targetRole}
	}

	sent := 0
	for _, role := range roles {
		ids, err := s.users.ListIDsByRole(ctx, role)
		if err != nil {
			return sent, fmt.Errorf("list %s ids: %w", role, err)
		}
		for _, id := range ids {
			if err := s.dispatcher.Enqueue(ctx, id, title, message, category); err != nil {
				s.logger.Warn().Err(err).Str("user_id", id.String()).Msg("failed to enqueue broadcast notification")
				continue
			}
			sent++
		}
	}
	return sent, nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message string, category notification.Category) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Enqueue(ctx, userID, title, message, category); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to enqueue notification")
	}
}
