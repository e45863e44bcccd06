package application

import (
	"time"

	"github.com/google/uuid"
)

// Status is the review axis of an application's lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReviewed  Status = "REVIEWED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// ValidReviewOutcome reports whether a doctor may set this status during a
// review. PENDING is not a review outcome; a review always moves the
// application forward.
func (s Status) ValidReviewOutcome() bool {
	switch s {
	case StatusReviewed, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is the payment axis, independent of Status.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentSuccess || p == PaymentFailed
}

// UrgencyLevel is informational; it does not gate any transition.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyNormal   UrgencyLevel = "NORMAL"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

func (u UrgencyLevel) Valid() bool {
	return u == UrgencyLow || u == UrgencyNormal || u == UrgencyHigh || u == UrgencyCritical
}

// Application is a consultation request from a patient to a doctor. The
// doctor binding and the consultation fee are fixed at submission; the
// version counter guards updates against concurrent modification.
type Application struct {
	ID                        uuid.UUID     `json:"id"`
	PatientID                 uuid.UUID     `json:"patient_id"`
	DoctorID                  uuid.UUID     `json:"doctor_id"`
	MedicalCondition          string        `json:"medical_condition"`
	Symptoms                  string        `json:"symptoms,omitempty"`
	CurrentTreatment          string        `json:"current_treatment,omitempty"`
	MedicalHistory            string        `json:"medical_history,omitempty"`
	Urgency                   UrgencyLevel  `json:"urgency"`
	PreferredConsultationDate *time.Time    `json:"preferred_consultation_date,omitempty"`
	ConsultationFee           float64       `json:"consultation_fee"`
	Status                    Status        `json:"status"`
	PaymentStatus             PaymentStatus `json:"payment_status"`
	DoctorNotes               string        `json:"doctor_notes,omitempty"`
	DoctorRecommendation      string        `json:"doctor_recommendation,omitempty"`
	ReviewedAt                *time.Time    `json:"reviewed_at,omitempty"`
	Version                   int           `json:"version"`
	CreatedAt                 time.Time     `json:"created_at"`
	UpdatedAt                 time.Time     `json:"updated_at"`
}

// PaymentConsistent is an advisory policy: a completed consultation should
// have a successful payment. Nothing enforces it; callers that want the
// check opt in.
func PaymentConsistent(status Status, payment PaymentStatus) bool {
	if status == StatusCompleted {
		return payment == PaymentSuccess
	}
	return true
}
