package admin

import "github.com/google/uuid"

// BulkAction selects what a bulk doctor operation does to each id.
type BulkAction string

const (
	BulkApprove BulkAction = "APPROVE"
	BulkReject  BulkAction = "REJECT"
)

func (a BulkAction) Valid() bool {
	return a == BulkApprove || a == BulkReject
}

// BulkItemResult reports the outcome for one id of a bulk operation.
type BulkItemResult struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
}

// BulkResult aggregates a bulk operation: per-item outcomes plus counts.
type BulkResult struct {
	Results      []BulkItemResult `json:"results"`
	SuccessCount int              `json:"success_count"`
	FailureCount int              `json:"failure_count"`
}

// Analytics is the admin dashboard snapshot.
type Analytics struct {
	TotalPatients         int     `json:"total_patients"`
	TotalDoctors          int     `json:"total_doctors"`
	TotalAdmins           int     `json:"total_admins"`
	PendingApplications   int     `json:"pending_applications"`
	ReviewedApplications  int     `json:"reviewed_applications"`
	ApprovedApplications  int     `json:"approved_applications"`
	RejectedApplications  int     `json:"rejected_applications"`
	CompletedApplications int     `json:"completed_applications"`
	SuccessfulPayments    int     `json:"successful_payments"`
	PaymentVolume         float64 `json:"payment_volume"`
}
