package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consult/consult/internal/domain/notification"
	"github.com/consult/consult/internal/domain/user"
	"github.com/consult/consult/internal/platform/apperr"
)

// Directory is the slice of the user directory the lifecycle engine needs.
// The user repository satisfies it.
type Directory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*user.Patient, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*user.Doctor, error)
}

// Service is the consultation lifecycle engine: it owns submission, review,
// and the payment axis of applications.
type Service struct {
	repo       Repository
	directory  Directory
	dispatcher notification.Dispatcher
	logger     zerolog.Logger
}

func NewService(repo Repository, directory Directory, dispatcher notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, directory: directory, dispatcher: dispatcher, logger: logger}
}

// Draft is the patient-supplied part of a submission. Status, fee, and the
// payment axis are never taken from the caller.
type Draft struct {
	DoctorID                  uuid.UUID    `json:"doctor_id"`
	MedicalCondition          string       `json:"medical_condition"`
	Symptoms                  string       `json:"symptoms"`
	CurrentTreatment          string       `json:"current_treatment"`
	MedicalHistory            string       `json:"medical_history"`
	Urgency                   UrgencyLevel `json:"urgency"`
	PreferredConsultationDate *time.Time   `json:"preferred_consultation_date"`
}

// Submit files a consultation request. The doctor must be verified and
// available; the consultation fee is frozen from the doctor's current fee
// and the application always starts PENDING on both axes. Both parties are
// notified.
func (s *Service) Submit(ctx context.Context, patientID uuid.UUID, draft Draft) (*Application, error) {
	patient, err := s.directory.GetPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "patient not found", err)
	}

	doctor, err := s.directory.GetDoctor(ctx, draft.DoctorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "doctor not found", err)
	}
	if !doctor.AcceptsConsultations() {
		return nil, apperr.New(apperr.Conflict, "doctor is not available for consultations")
	}

	if strings.TrimSpace(draft.MedicalCondition) == "" {
		return nil, apperr.New(apperr.Validation, "medical_condition is required")
	}
	if draft.Urgency == "" {
		draft.Urgency = UrgencyNormal
	}
	if !draft.Urgency.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid urgency level: %s", draft.Urgency)
	}

	app := &Application{
		PatientID:                 patientID,
		DoctorID:                  draft.DoctorID,
		MedicalCondition:          strings.TrimSpace(draft.MedicalCondition),
		Symptoms:                  draft.Symptoms,
		CurrentTreatment:          draft.CurrentTreatment,
		MedicalHistory:            draft.MedicalHistory,
		Urgency:                   draft.Urgency,
		PreferredConsultationDate: draft.PreferredConsultationDate,
		ConsultationFee:           doctor.ConsultationFee,
		Status:                    StatusPending,
		PaymentStatus:             PaymentPending,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.notify(ctx, patientID, "Application Submitted",
		fmt.Sprintf("Your consultation request has been submitted to Dr. %s.", doctor.FullName()),
		notification.CategoryApplicationSubmitted)
	s.notify(ctx, doctor.ID, "New Consultation Request",
		fmt.Sprintf("You have received a new consultation request from %s.", patient.FullName()),
		notification.CategoryApplicationSubmitted)

	return app, nil
}

// Review records a doctor's decision. Only the bound doctor may review;
// notes, recommendation, status, and reviewed_at change together under the
// version check. The patient is notified; the doctor is not.
func (s *Service) Review(ctx context.Context, doctorID, applicationID uuid.UUID, notes, recommendation string, outcome Status) (*Application, error) {
	if !outcome.ValidReviewOutcome() {
		return nil, apperr.Newf(apperr.Validation, "invalid review outcome: %s", outcome)
	}

	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.DoctorID != doctorID {
		return nil, apperr.New(apperr.Unauthorized, "application belongs to another doctor")
	}

	doctor, err := s.directory.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "doctor not found", err)
	}

	now := time.Now().UTC()
	app.DoctorNotes = notes
	app.DoctorRecommendation = recommendation
	app.Status = outcome
	app.ReviewedAt = &now

	if err := s.repo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.notify(ctx, app.PatientID, "Application Reviewed",
		fmt.Sprintf("Your consultation request has been reviewed by Dr. %s.", doctor.FullName()),
		notification.CategoryApplicationReviewed)

	return app, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Application, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Newf(apperr.Validation, "invalid status: %s", status)
	}
	return s.repo.ListByPatient(ctx, patientID, status, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Newf(apperr.Validation, "invalid status: %s", status)
	}
	return s.repo.ListByDoctor(ctx, doctorID, status, limit, offset)
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]*Application, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Newf(apperr.Validation, "invalid status: %s", status)
	}
	return s.repo.List(ctx, status, limit, offset)
}

// SetPaymentStatus moves the payment axis only. The review axis is
// untouched regardless of the value; consistency between the two is
// advisory (see PaymentConsistent).
func (s *Service) SetPaymentStatus(ctx context.Context, applicationID uuid.UUID, status PaymentStatus) error {
	if !status.Valid() {
		return apperr.Newf(apperr.Validation, "invalid payment status: %s", status)
	}
	return s.repo.SetPaymentStatus(ctx, applicationID, status)
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message string, category notification.Category) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Enqueue(ctx, userID, title, message, category); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to enqueue notification")
	}
}
