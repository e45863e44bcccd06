package auth

import (
	"testing"

	"github.com/google/uuid"

	"github.com/consult/consult/internal/platform/apperr"
)

func TestAuthorize_AdminPassesEverything(t *testing.T) {
	admin := Identity{UserID: uuid.New(), Role: RoleAdmin}
	actions := []Action{
		ActionSubmitApplication, ActionReviewApplication,
		ActionReadApplication, ActionManageUsers, ActionRecordPayment,
	}
	for _, a := range actions {
		if err := Authorize(admin, a, uuid.New()); err != nil {
			t.Errorf("admin should be allowed %s, got %v", a, err)
		}
	}
}

func TestAuthorize_PatientSubmitsOnlyAsSelf(t *testing.T) {
	patientID := uuid.New()
	patient := Identity{UserID: patientID, Role: RolePatient}

	if err := Authorize(patient, ActionSubmitApplication, patientID); err != nil {
		t.Errorf("patient should submit for own id, got %v", err)
	}

	err := Authorize(patient, ActionSubmitApplication, uuid.New())
	if !apperr.IsUnauthorized(err) {
		t.Errorf("expected Unauthorized for foreign id, got %v", err)
	}
}

func TestAuthorize_DoctorMayNotSubmit(t *testing.T) {
	doctor := Identity{UserID: uuid.New(), Role: RoleDoctor}
	err := Authorize(doctor, ActionSubmitApplication, doctor.UserID)
	if !apperr.IsUnauthorized(err) {
		t.Errorf("expected Unauthorized for doctor submitting, got %v", err)
	}
}

func TestAuthorize_ReviewRequiresDoctorRole(t *testing.T) {
	doctor := Identity{UserID: uuid.New(), Role: RoleDoctor}
	if err := Authorize(doctor, ActionReviewApplication, uuid.New()); err != nil {
		t.Errorf("doctor should pass review role gate, got %v", err)
	}

	patient := Identity{UserID: uuid.New(), Role: RolePatient}
	err := Authorize(patient, ActionReviewApplication, uuid.New())
	if !apperr.IsUnauthorized(err) {
		t.Errorf("expected Unauthorized for patient reviewing, got %v", err)
	}
}

func TestAuthorize_ManageUsersIsAdminOnly(t *testing.T) {
	for _, role := range []string{RolePatient, RoleDoctor} {
		id := Identity{UserID: uuid.New(), Role: role}
		err := Authorize(id, ActionManageUsers, uuid.Nil)
		if !apperr.IsUnauthorized(err) {
			t.Errorf("expected Unauthorized for role %s, got %v", role, err)
		}
	}
}
