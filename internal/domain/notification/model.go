package notification

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a notification for client-side presentation and
// filtering.
type Category string

const (
	CategoryInfo                 Category = "INFO"
	CategorySuccess              Category = "SUCCESS"
	CategoryWarning              Category = "WARNING"
	CategoryError                Category = "ERROR"
	CategoryApplicationSubmitted Category = "APPLICATION_SUBMITTED"
	CategoryApplicationReviewed  Category = "APPLICATION_REVIEWED"
	CategoryPaymentSuccess       Category = "PAYMENT_SUCCESS"
	CategoryPaymentFailed        Category = "PAYMENT_FAILED"
	CategoryDoctorApproved       Category = "DOCTOR_APPROVED"
	CategoryDoctorRejected       Category = "DOCTOR_REJECTED"
	CategoryProfileUpdated       Category = "PROFILE_UPDATED"
	CategorySystemMaintenance    Category = "SYSTEM_MAINTENANCE"
	CategoryGeneral              Category = "GENERAL"
)

var validCategories = map[Category]bool{
	CategoryInfo:                 true,
	CategorySuccess:              true,
	CategoryWarning:              true,
	CategoryError:                true,
	CategoryApplicationSubmitted: true,
	CategoryApplicationReviewed:  true,
	CategoryPaymentSuccess:       true,
	CategoryPaymentFailed:        true,
	CategoryDoctorApproved:       true,
	CategoryDoctorRejected:       true,
	CategoryProfileUpdated:       true,
	CategorySystemMaintenance:    true,
	CategoryGeneral:              true,
}

func (c Category) Valid() bool {
	return validCategories[c]
}

// Notification is a persisted per-user message.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Category  Category   `json:"type"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Event is the wire form published to the broker. Its ID doubles as the
// idempotency key: the consumer inserts with ON CONFLICT DO NOTHING, so a
// redelivered event produces no duplicate row.
type Event struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
