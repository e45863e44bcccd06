package auth

import (
	"github.com/google/uuid"

	"github.com/consult/consult/internal/platform/apperr"
)

// Action names an operation subject to the authorization policy.
type Action string

const (
	ActionSubmitApplication Action = "application.submit"
	ActionReviewApplication Action = "application.review"
	ActionReadApplication   Action = "application.read"
	ActionManageUsers       Action = "users.manage"
	ActionRecordPayment     Action = "payment.record"
)

// Authorize is the single policy deciding whether a caller may perform an
// action on a resource owned by ownerID. It compares the authenticated
// identity against the owning id; a client-supplied id is never trusted for
// anything beyond addressing which record to act on.
func Authorize(id Identity, action Action, ownerID uuid.UUID) error {
	if id.Role == RoleAdmin {
		return nil
	}

	switch action {
	case ActionSubmitApplication:
		if id.Role == RolePatient && id.UserID == ownerID {
			return nil
		}
	case ActionReviewApplication:
		// Ownership of the specific application is checked by the lifecycle
		// engine against the stored doctor id; the policy gates the role.
		if id.Role == RoleDoctor {
			return nil
		}
	case ActionReadApplication:
		if (id.Role == RolePatient || id.Role == RoleDoctor) && id.UserID == ownerID {
			return nil
		}
	case ActionRecordPayment:
		if id.Role == RolePatient && id.UserID == ownerID {
			return nil
		}
	case ActionManageUsers:
		// Admin only; handled above.
	}

	return apperr.Newf(apperr.Unauthorized, "role %q may not perform %s", id.Role, action)
}
