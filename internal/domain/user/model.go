package user

import (
	"time"

	"github.com/google/uuid"
)

// Role discriminates the user variants.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

// User is the base record shared by every role.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Patient carries the patient-specific profile payload.
type Patient struct {
	User
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Gender             string     `json:"gender,omitempty"`
	Address            string     `json:"address,omitempty"`
	EmergencyContact   string     `json:"emergency_contact,omitempty"`
	MedicalHistory     string     `json:"medical_history,omitempty"`
	CurrentMedications string     `json:"current_medications,omitempty"`
	Allergies          string     `json:"allergies,omitempty"`
}

// Doctor carries the doctor-specific profile payload. A doctor accepts
// consultations only while verified and available.
type Doctor struct {
	User
	LicenseNumber       string  `json:"license_number"`
	Specialization      string  `json:"specialization"`
	YearsOfExperience   int     `json:"years_of_experience"`
	Qualification       string  `json:"qualification,omitempty"`
	HospitalAffiliation string  `json:"hospital_affiliation,omitempty"`
	ConsultationFee     float64 `json:"consultation_fee"`
	Bio                 string  `json:"bio,omitempty"`
	IsVerified          bool    `json:"is_verified"`
	IsAvailable         bool    `json:"is_available"`
	Rating              float64 `json:"rating"`
	TotalReviews        int     `json:"total_reviews"`
}

// AcceptsConsultations reports whether the doctor can receive new
// consultation requests.
func (d *Doctor) AcceptsConsultations() bool {
	return d.IsVerified && d.IsAvailable
}
