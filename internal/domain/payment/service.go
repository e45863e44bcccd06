package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consult/consult/internal/domain/application"
	"github.com/consult/consult/internal/domain/notification"
	"github.com/consult/consult/internal/domain/user"
	"github.com/consult/consult/internal/platform/apperr"
)

// UserGetter is the slice of the user directory the payment service needs.
type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// ApplicationRegistry resolves a linked application and moves its payment
// axis.
type ApplicationRegistry interface {
	Get(ctx context.Context, id uuid.UUID) (*application.Application, error)
	SetPaymentStatus(ctx context.Context, applicationID uuid.UUID, status application.PaymentStatus) error
}

type Service struct {
	repo       Repository
	users      UserGetter
	apps       ApplicationRegistry
	dispatcher notification.Dispatcher
	logger     zerolog.Logger
}

func NewService(repo Repository, users UserGetter, apps ApplicationRegistry, dispatcher notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, apps: apps, dispatcher: dispatcher, logger: logger}
}

// RecordRequest is the caller-supplied part of a payment.
type RecordRequest struct {
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Description   string     `json:"description"`
	DoctorID      *uuid.UUID `json:"doctor_id"`
	ApplicationID *uuid.UUID `json:"application_id"`
}

// Record stores a successful payment for the user and notifies them. A
// payment linked to an application also moves that application's payment
// axis to SUCCESS. The link is ownership-checked: only the application's
// patient may pay for it, and the doctor and amount come from the
// application itself, not from the request.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, req RecordRequest) (*Payment, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "user not found", err)
	}

	if req.ApplicationID != nil {
		if s.apps == nil {
			return nil, apperr.New(apperr.Validation, "application payments are not supported")
		}
		app, err := s.apps.Get(ctx, *req.ApplicationID)
		if err != nil {
			return nil, err
		}
		if app.PatientID != userID {
			return nil, apperr.New(apperr.Unauthorized, "application belongs to another patient")
		}
		doctorID := app.DoctorID
		req.DoctorID = &doctorID
		req.Amount = app.ConsultationFee
	}

	if req.Amount <= 0 {
		return nil, apperr.New(apperr.Validation, "amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	p := &Payment{
		ID:             uuid.New(),
		UserID:         userID,
		DoctorID:       req.DoctorID,
		ApplicationID:  req.ApplicationID,
		Amount:         req.Amount,
		Currency:       currency,
		Description:    req.Description,
		Status:         StatusSuccess,
		TransactionRef: "TXN-" + uuid.New().String(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if req.ApplicationID != nil && s.apps != nil {
		if err := s.apps.SetPaymentStatus(ctx, *req.ApplicationID, application.PaymentSuccess); err != nil {
			s.logger.Warn().Err(err).
				Str("application_id", req.ApplicationID.String()).
				Msg("failed to sync application payment status")
		}
	}

	s.notify(ctx, userID, "Payment Successful",
		fmt.Sprintf("Your payment of %.2f %s has been processed.", p.Amount, p.Currency),
		notification.CategoryPaymentSuccess)

	return p, nil
}

// UpdateStatus moves a payment's status and keeps a linked application's
// payment axis in step. A transition to FAILED notifies the payer.
func (s *Service) UpdateStatus(ctx context.Context, paymentID uuid.UUID, status Status) error {
	if !status.Valid() {
		return apperr.Newf(apperr.Validation, "invalid payment status: %s", status)
	}

	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, paymentID, status); err != nil {
		return err
	}

	if p.ApplicationID != nil && s.apps != nil {
		if err := s.apps.SetPaymentStatus(ctx, *p.ApplicationID, application.PaymentStatus(status)); err != nil {
			s.logger.Warn().Err(err).
				Str("application_id", p.ApplicationID.String()).
				Msg("failed to sync application payment status")
		}
	}

	if status == StatusFailed && p.Status != StatusFailed {
		s.notify(ctx, p.UserID, "Payment Failed",
			fmt.Sprintf("Your payment of %.2f %s could not be processed.", p.Amount, p.Currency),
			notification.CategoryPaymentFailed)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// DoctorEarnings totals the doctor's successful payments.
func (s *Service) DoctorEarnings(ctx context.Context, doctorID uuid.UUID) (float64, error) {
	return s.repo.SumByDoctor(ctx, doctorID, StatusSuccess)
}

// EarningsHistory lists the doctor's successful payments, newest first.
func (s *Service) EarningsHistory(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, StatusSuccess, limit, offset)
}

func (s *Service) Totals(ctx context.Context) (int, float64, error) {
	return s.repo.Totals(ctx)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message string, category notification.Category) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Enqueue(ctx, userID, title, message, category); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to enqueue notification")
	}
}
