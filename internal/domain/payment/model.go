package payment

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a payment record. It mirrors the payment axis of an
// application when the payment is linked to one.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusSuccess || s == StatusFailed
}

// Payment is a recorded transaction from a user, optionally tied to a
// doctor and an application.
type Payment struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	DoctorID       *uuid.UUID `json:"doctor_id,omitempty"`
	ApplicationID  *uuid.UUID `json:"application_id,omitempty"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	TransactionRef string     `json:"transaction_ref"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
