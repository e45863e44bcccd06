package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consult/consult/internal/domain/notification"
	"github.com/consult/consult/internal/platform/apperr"
)

type Service struct {
	repo       Repository
	dispatcher notification.Dispatcher
	logger     zerolog.Logger
}

func NewService(repo Repository, dispatcher notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, dispatcher: dispatcher, logger: logger}
}

func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if err := validateBase(&p.User); err != nil {
		return err
	}
	if err := s.repo.CreatePatient(ctx, p); err != nil {
		return err
	}
	s.notify(ctx, p.ID, "Welcome", "Your patient account has been created.", notification.CategorySuccess)
	return nil
}

func (s *Service) RegisterDoctor(ctx context.Context, d *Doctor) error {
	if err := validateBase(&d.User); err != nil {
		return err
	}
	if d.LicenseNumber == "" {
		return apperr.New(apperr.Validation, "license_number is required")
	}
	if d.Specialization == "" {
		return apperr.New(apperr.Validation, "specialization is required")
	}
	if d.ConsultationFee < 0 {
		return apperr.New(apperr.Validation, "consultation_fee must not be negative")
	}
	if err := s.repo.CreateDoctor(ctx, d); err != nil {
		return err
	}
	s.notify(ctx, d.ID, "Welcome",
		"Your doctor account has been created and is pending verification.", notification.CategoryInfo)
	return nil
}

func validateBase(u *User) error {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return apperr.New(apperr.Validation, "a valid email is required")
	}
	if u.FirstName == "" || u.LastName == "" {
		return apperr.New(apperr.Validation, "first_name and last_name are required")
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "user not found", err)
	}
	return u, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "patient not found", err)
	}
	return p, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, "doctor not found", err)
	}
	return d, nil
}

// UpdatePatientProfile applies a partial profile update and notifies the
// patient.
func (s *Service) UpdatePatientProfile(ctx context.Context, p *Patient) error {
	existing, err := s.repo.GetPatient(ctx, p.ID)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "patient not found", err)
	}
	merged := mergePatient(existing, p)
	if err := s.repo.UpdatePatient(ctx, merged); err != nil {
		return err
	}
	s.notify(ctx, p.ID, "Profile Updated",
		"Your profile has been updated successfully.", notification.CategoryProfileUpdated)
	return nil
}

// UpdateDoctorProfile applies a partial profile update and notifies the
// doctor. Verification and availability flags are not touched here.
func (s *Service) UpdateDoctorProfile(ctx context.Context, d *Doctor) error {
	existing, err := s.repo.GetDoctor(ctx, d.ID)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "doctor not found", err)
	}
	if d.ConsultationFee < 0 {
		return apperr.New(apperr.Validation, "consultation_fee must not be negative")
	}
	merged := mergeDoctor(existing, d)
	if err := s.repo.UpdateDoctor(ctx, merged); err != nil {
		return err
	}
	s.notify(ctx, d.ID, "Profile Updated",
		"Your profile has been updated successfully.", notification.CategoryProfileUpdated)
	return nil
}

func (s *Service) AvailableDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.ListAvailableDoctors(ctx, limit, offset)
}

func (s *Service) DoctorsBySpecialization(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error) {
	if specialization == "" {
		return nil, 0, apperr.New(apperr.Validation, "specialization is required")
	}
	return s.repo.ListDoctorsBySpecialization(ctx, specialization, limit, offset)
}

func (s *Service) SearchDoctors(ctx context.Context, query string, limit, offset int) ([]*Doctor, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, apperr.New(apperr.Validation, "search query is required")
	}
	return s.repo.SearchDoctors(ctx, query, limit, offset)
}

func (s *Service) SetDoctorAvailability(ctx context.Context, doctorID uuid.UUID, available bool) error {
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		return apperr.Wrap(apperr.NotFound, "doctor not found", err)
	}
	return s.repo.SetDoctorAvailability(ctx, doctorID, available)
}

// notify enqueues best-effort: a broken dispatcher never fails the calling
// operation.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message string, category notification.Category) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Enqueue(ctx, userID, title, message, category); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to enqueue notification")
	}
}

func mergePatient(existing, in *Patient) *Patient {
	merged := *existing
	if in.FirstName != "" {
		merged.FirstName = in.FirstName
	}
	if in.LastName != "" {
		merged.LastName = in.LastName
	}
	if in.Phone != "" {
		merged.Phone = in.Phone
	}
	if in.DateOfBirth != nil {
		merged.DateOfBirth = in.DateOfBirth
	}
	if in.Gender != "" {
		merged.Gender = in.Gender
	}
	if in.Address != "" {
		merged.Address = in.Address
	}
	if in.EmergencyContact != "" {
		merged.EmergencyContact = in.EmergencyContact
	}
	if in.MedicalHistory != "" {
		merged.MedicalHistory = in.MedicalHistory
	}
	if in.CurrentMedications != "" {
		merged.CurrentMedications = in.CurrentMedications
	}
	if in.Allergies != "" {
		merged.Allergies = in.Allergies
	}
	return &merged
}

func mergeDoctor(existing, in *Doctor) *Doctor {
	merged := *existing
	if in.FirstName != "" {
		merged.FirstName = in.FirstName
	}
	if in.LastName != "" {
		merged.LastName = in.LastName
	}
	if in.Phone != "" {
		merged.Phone = in.Phone
	}
	if in.Specialization != "" {
		merged.Specialization = in.Specialization
	}
	if in.YearsOfExperience > 0 {
		merged.YearsOfExperience = in.YearsOfExperience
	}
	if in.Qualification != "" {
		merged.Qualification = in.Qualification
	}
	if in.HospitalAffiliation != "" {
		merged.HospitalAffiliation = in.HospitalAffiliation
	}
	if in.ConsultationFee > 0 {
		merged.ConsultationFee = in.ConsultationFee
	}
	if in.Bio != "" {
		merged.Bio = in.Bio
	}
	return &merged
}
