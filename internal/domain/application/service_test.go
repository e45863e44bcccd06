package application

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consult/consult/internal/domain/notification"
	"github.com/consult/consult/internal/domain/user"
	"github.com/consult/consult/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	applications map[uuid.UUID]*Application
}

func newMockRepo() *mockRepo {
	return &mockRepo{applications: make(map[uuid.UUID]*Application)}
}

func (m *mockRepo) Create(_ context.Context, app *Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	app.Version = 1
	app.CreatedAt = time.Now()
	app.UpdatedAt = time.Now()
	stored := *app
	m.applications[app.ID] = &stored
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Application, error) {
	app, ok := m.applications[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "application not found")
	}
	copy := *app
	return &copy, nil
}

func (m *mockRepo) Update(_ context.Context, app *Application) error {
	stored, ok := m.applications[app.ID]
	if !ok {
		return apperr.New(apperr.NotFound, "application not found")
	}
	if stored.Version != app.Version {
		return apperr.Newf(apperr.Conflict, "application %s was modified concurrently", app.ID)
	}
	app.Version++
	app.UpdatedAt = time.Now()
	updated := *app
	// Mirrors the real repository: Update never touches the payment axis.
	updated.PaymentStatus = stored.PaymentStatus
	m.applications[app.ID] = &updated
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error) {
	var result []*Application
	for _, app := range m.applications {
		if app.PatientID == patientID && (status == "" || app.Status == status) {
			result = append(result, app)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error) {
	var result []*Application
	for _, app := range m.applications {
		if app.DoctorID == doctorID && (status == "" || app.Status == status) {
			result = append(result, app)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) List(_ context.Context, status Status, limit, offset int) ([]*Application, int, error) {
	var result []*Application
	for _, app := range m.applications {
		if status == "" || app.Status == status {
			result = append(result, app)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) SetPaymentStatus(_ context.Context, id uuid.UUID, status PaymentStatus) error {
	app, ok := m.applications[id]
	if !ok {
		return apperr.New(apperr.NotFound, "application not found")
	}
	app.PaymentStatus = status
	return nil
}

func (m *mockRepo) CountByStatus(_ context.Context) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, app := range m.applications {
		counts[app.Status]++
	}
	return counts, nil
}

// -- Mock Directory --

type mockDirectory struct {
	patients map[uuid.UUID]*user.Patient
	doctors  map[uuid.UUID]*user.Doctor
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		patients: make(map[uuid.UUID]*user.Patient),
		doctors:  make(map[uuid.UUID]*user.Doctor),
	}
}

func (m *mockDirectory) GetPatient(_ context.Context, id uuid.UUID) (*user.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockDirectory) GetDoctor(_ context.Context, id uuid.UUID) (*user.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mockDirectory) addPatient(name string) *user.Patient {
	p := &user.Patient{User: user.User{
		ID: uuid.New(), FirstName: name, LastName: "Patient", Role: user.RolePatient, IsActive: true,
	}}
	m.patients[p.ID] = p
	return p
}

func (m *mockDirectory) addDoctor(name string, fee float64, verified, available bool) *user.Doctor {
	d := &user.Doctor{
		User: user.User{
			ID: uuid.New(), FirstName: name, LastName: "Doctor", Role: user.RoleDoctor, IsActive: true,
		},
		ConsultationFee: fee,
		IsVerified:      verified,
		IsAvailable:     available,
	}
	m.doctors[d.ID] = d
	return d
}

// -- Mock Dispatcher --

type mockDispatcher struct {
	sent []notification.Event
	fail bool
}

func (m *mockDispatcher) Enqueue(_ context.Context, userID uuid.UUID, title, message string, category notification.Category) error {
	if m.fail {
		return fmt.Errorf("broker down")
	}
	m.sent = append(m.sent, notification.Event{
		UserID: userID, Title: title, Message: message, Category: category,
	})
	return nil
}

func (m *mockDispatcher) sentTo(userID uuid.UUID) []notification.Event {
	var result []notification.Event
	for _, e := range m.sent {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result
}

func newTestService(repo Repository, dir Directory, disp notification.Dispatcher) *Service {
	return NewService(repo, dir, disp, zerolog.New(os.Stderr).Level(zerolog.Disabled))
}

func validDraft(doctorID uuid.UUID) Draft {
	return Draft{
		DoctorID:         doctorID,
		MedicalCondition: "persistent migraines",
		Symptoms:         "headache, light sensitivity",
		Urgency:          UrgencyHigh,
	}
}

// -- Submit --

func TestSubmit(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	disp := &mockDispatcher{}
	svc := newTestService(repo, dir, disp)

	patient := dir.addPatient("Ann")
	doctor := dir.addDoctor("Jane", 150, true, true)

	app, err := svc.Submit(context.Background(), patient.ID, validDraft(doctor.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if app.Status != StatusPending {
		t.Errorf("expected status PENDING, got %s", app.Status)
	}
	if app.PaymentStatus != PaymentPending {
		t.Errorf("expected payment status PENDING, got %s", app.PaymentStatus)
	}
	if app.ConsultationFee != 150 {
		t.Errorf("expected fee frozen at 150, got %f", app.ConsultationFee)
	}
	if len(disp.sent) != 2 {
		t.Fatalf("expected exactly 2 notifications, got %d", len(disp.sent))
	}
	if got := disp.sentTo(patient.ID); len(got) != 1 || got[0].Category != notification.CategoryApplicationSubmitted {
		t.Errorf("expected one APPLICATION_SUBMITTED notification to the patient, got %v", got)
	}
	if got := disp.sentTo(doctor.ID); len(got) != 1 || got[0].Category != notification.CategoryApplicationSubmitted {
		t.Errorf("expected one APPLICATION_SUBMITTED notification to the doctor, got %v", got)
	}
}

func TestSubmit_FeeFrozenAgainstLaterChange(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newTestService(repo, dir, &mockDispatcher{})

	patient := dir.addPatient("Ann")
	doctor := dir.addDoctor("Jane", 100, true, true)

	app, err := svc.Submit(context.Background(), patient.ID, validDraft(doctor.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doctor.ConsultationFee = 500

	got, err := svc.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ConsultationFee != 100 {
		t.Errorf("fee must stay frozen at 100, got %f", got.ConsultationFee)
	}
}

func TestSubmit_PatientNotFound(t *testing.T) {
	dir := newMockDirectory()
	svc := newTestService(newMockRepo(), dir, &mockDispatcher{})
	doctor := dir.addDoctor("Jane", 100, true, true)

	_, err := svc.Submit(context.Background(), uuid.New(), validDraft(doctor.ID))
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestSubmit_DoctorNotFound(t *testing.T) {
	dir := newMockDirectory()
	svc := newTestService(newMockRepo(), dir, &mockDispatcher{})
	patient := dir.addPatient("Ann")

	_, err := svc.Submit(context.Background(), patient.ID, validDraft(uuid.New()))
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestSubmit_DoctorNotAccepting(t *testing.T) {
	cases := []struct {
		name      string
		verified  bool
		available bool
	}{
		{"unverified", false, true},
		{"unavailable", true, false},
		{"neither", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockRepo()
			dir := newMockDirectory()
			disp := &mockDispatcher{}
			svc := newTestService(repo, dir, disp)

			patient := dir.addPatient("Ann")
			doctor := dir.addDoctor("Jane", 100, tc.verified, tc.available)

			_, err := svc.Submit(context.Background(), patient.ID, validDraft(doctor.ID))
			if !apperr.IsConflict(err) {
				t.Errorf("expected conflict error, got %v", err)
			}
			if len(repo.applications) != 0 {
				t.Error("no application may be created for a non-accepting doctor")
			}
			if len(disp.sent) != 0 {
				t.Error("no notifications may be sent for a rejected submission")
			}
		})
	}
}

func TestSubmit_MissingCondition(t *testing.T) {
	dir := newMockDirectory()
	svc := newTestService(newMockRepo(), dir, &mockDispatcher{})
	patient := dir.addPatient("Ann")
	doctor := dir.addDoctor("Jane", 100, true, true)

	draft := validDraft(doctor.ID)
	draft.MedicalCondition = "   "
	_, err := svc.Submit(context.Background(), patient.ID, draft)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSubmit_DefaultsUrgency(t *testing.T) {
	dir := newMockDirectory()
	svc := newTestService(newMockRepo(), dir, &mockDispatcher{})
	patient := dir.addPatient("Ann")
	doctor := dir.addDoctor("Jane", 100, true, true)

	draft := validDraft(doctor.ID)
	draft.Urgency = ""
	app, err := svc.Submit(context.Background(), patient.ID, draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Urgency != UrgencyNormal {
		t.Errorf("expected urgency to default to NORMAL, got %s", app.Urgency)
	}
}

func TestSubmit_NotificationFailureDoesNotFail(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newTestService(repo, dir, &mockDispatcher{fail: true})

	patient := dir.addPatient("Ann")
	doctor := dir.addDoctor("Jane", 100, true, true)

	app, err := svc.Submit(context.Background(), patient.ID, validDraft(doctor.ID))
	if err != nil {
		t.Fatalf("a failed notification must not fail the submission: %v", err)
	}
	if _, ok := repo.applications[app.ID]; !ok {
		t.Error("application must be persisted despite notification failure")
	}
}

// -- Review --

func submitOne(t *testing.T, svc *Service, dir *mockDirectory) (*Application, *user.Patient, *user.Doctor) {
	t.Helper()
	patient := dir.addPatient("Ann")
	doctor := dir.addDoctor("Jane", 100, true, true)
	app, err := svc.Submit(context.Background(), patient.ID, validDraft(doctor.ID))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return app, patient, doctor
}

func TestReview(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	disp := &mockDispatcher{}
	svc := newTestService(repo, dir, disp)
	app, patient, doctor := submitOne(t, svc, dir)
	disp.sent = nil

	reviewed, err := svc.Review(context.Background(), doctor.ID, app.ID,
		"needs further tests", "schedule an MRI", StatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reviewed.Status != StatusApproved {
		t.Errorf("expected status APPROVED, got %s", reviewed.Status)
	}
	if reviewed.DoctorNotes != "needs further tests" {
		t.Errorf("unexpected notes %q", reviewed.DoctorNotes)
	}
	if reviewed.DoctorRecommendation != "schedule an MRI" {
		t.Errorf("unexpected recommendation %q", reviewed.DoctorRecommendation)
	}
	if reviewed.ReviewedAt == nil {
		t.Error("reviewed_at must be set")
	}
	if len(disp.sent) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(disp.sent))
	}
	if disp.sent[0].UserID != patient.ID || disp.sent[0].Category != notification.CategoryApplicationReviewed {
		t.Errorf("expected APPLICATION_REVIEWED to the patient, got %v", disp.sent[0])
	}
}

func TestReview_ForeignDoctor(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	disp := &mockDispatcher{}
	svc := newTestService(repo, dir, disp)
	app, _, _ := submitOne(t, svc, dir)
	disp.sent = nil

	other := dir.addDoctor("Eve", 100, true, true)
	_, err := svc.Review(context.Background(), other.ID, app.ID, "n", "r", StatusApproved)
	if !apperr.IsUnauthorized(err) {
		t.Errorf("expected unauthorized error, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), app.ID)
	if stored.Status != StatusPending {
		t.Errorf("application must stay PENDING after rejected review, got %s", stored.Status)
	}
	if len(disp.sent) != 0 {
		t.Error("no notifications may be sent for a rejected review")
	}
}

func TestReview_NotFound(t *testing.T) {
	dir := newMockDirectory()
	svc := newTestService(newMockRepo(), dir, &mockDispatcher{})
	doctor := dir.addDoctor("Jane", 100, true, true)

	_, err := svc.Review(context.Background(), doctor.ID, uuid.New(), "n", "r", StatusApproved)
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestReview_InvalidOutcome(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newTestService(repo, dir, &mockDispatcher{})
	app, _, doctor := submitOne(t, svc, dir)

	for _, outcome := range []Status{StatusPending, Status("NONSENSE"), Status("")} {
		_, err := svc.Review(context.Background(), doctor.ID, app.ID, "n", "r", outcome)
		if !apperr.IsValidation(err) {
			t.Errorf("outcome %q: expected validation error, got %v", outcome, err)
		}
	}
}

func TestReview_VersionConflict(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newTestService(repo, dir, &mockDispatcher{})
	app, _, doctor := submitOne(t, svc, dir)

	// Simulate a concurrent writer bumping the stored version.
	repo.applications[app.ID].Version++

	_, err := svc.Review(context.Background(), doctor.ID, app.ID, "n", "r", StatusApproved)
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict error on stale version, got %v", err)
	}
}

// -- Payment axis --

func TestSetPaymentStatus_LeavesReviewAxisAlone(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newTestService(repo, dir, &mockDispatcher{})
	app, _, _ := submitOne(t, svc, dir)

	if err := svc.SetPaymentStatus(context.Background(), app.ID, PaymentSuccess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), app.ID)
	if stored.PaymentStatus != PaymentSuccess {
		t.Errorf("expected payment status SUCCESS, got %s", stored.PaymentStatus)
	}
	if stored.Status != StatusPending {
		t.Errorf("review axis must be untouched, got %s", stored.Status)
	}
}

// paymentRaceRepo flips the payment axis to SUCCESS right after the first
// read, landing between Review's read and its version-checked write.
type paymentRaceRepo struct {
	*mockRepo
	raced bool
}

func (r *paymentRaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	app, err := r.mockRepo.GetByID(ctx, id)
	if err == nil && !r.raced {
		r.raced = true
		if err := r.mockRepo.SetPaymentStatus(ctx, id, PaymentSuccess); err != nil {
			return nil, err
		}
	}
	return app, err
}

func TestReview_DoesNotRevertConcurrentPaymentUpdate(t *testing.T) {
	base := newMockRepo()
	repo := &paymentRaceRepo{mockRepo: base}
	dir := newMockDirectory()
	svc := newTestService(repo, dir, &mockDispatcher{})
	app, _, doctor := submitOne(t, svc, dir)

	reviewed, err := svc.Review(context.Background(), doctor.ID, app.ID,
		"n", "r", StatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewed.Status != StatusApproved {
		t.Errorf("expected status APPROVED, got %s", reviewed.Status)
	}

	stored, _ := base.GetByID(context.Background(), app.ID)
	if stored.PaymentStatus != PaymentSuccess {
		t.Errorf("payment update landing mid-review must survive, got %s", stored.PaymentStatus)
	}
	if stored.Status != StatusApproved {
		t.Errorf("review outcome must still be written, got %s", stored.Status)
	}
}

func TestSetPaymentStatus_Invalid(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockDirectory(), &mockDispatcher{})

	err := svc.SetPaymentStatus(context.Background(), uuid.New(), PaymentStatus("MAYBE"))
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPaymentConsistent(t *testing.T) {
	if !PaymentConsistent(StatusCompleted, PaymentSuccess) {
		t.Error("completed with successful payment must be consistent")
	}
	if PaymentConsistent(StatusCompleted, PaymentPending) {
		t.Error("completed with pending payment must be inconsistent")
	}
	if PaymentConsistent(StatusCompleted, PaymentFailed) {
		t.Error("completed with failed payment must be inconsistent")
	}
	if !PaymentConsistent(StatusPending, PaymentFailed) {
		t.Error("pending applications are consistent with any payment state")
	}
	if !PaymentConsistent(StatusRejected, PaymentPending) {
		t.Error("rejected applications are consistent with any payment state")
	}
}

// -- Lists --

func TestListFilters(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	svc := newTestService(repo, dir, &mockDispatcher{})

	patient := dir.addPatient("Ann")
	doctor := dir.addDoctor("Jane", 100, true, true)
	other := dir.addDoctor("Eve", 100, true, true)

	a1, _ := svc.Submit(context.Background(), patient.ID, validDraft(doctor.ID))
	if _, err := svc.Submit(context.Background(), patient.ID, validDraft(other.ID)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Review(context.Background(), doctor.ID, a1.ID, "n", "r", StatusApproved); err != nil {
		t.Fatal(err)
	}

	byPatient, total, err := svc.ListByPatient(context.Background(), patient.ID, "", 10, 0)
	if err != nil || total != 2 || len(byPatient) != 2 {
		t.Errorf("expected 2 applications for patient, got %d (%v)", total, err)
	}

	byDoctor, total, err := svc.ListByDoctor(context.Background(), doctor.ID, "", 10, 0)
	if err != nil || total != 1 || len(byDoctor) != 1 {
		t.Errorf("expected 1 application for doctor, got %d (%v)", total, err)
	}

	approved, total, err := svc.List(context.Background(), StatusApproved, 10, 0)
	if err != nil || total != 1 || len(approved) != 1 {
		t.Errorf("expected 1 approved application, got %d (%v)", total, err)
	}

	if _, _, err := svc.List(context.Background(), Status("BOGUS"), 10, 0); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bogus status filter, got %v", err)
	}
}

func TestStatusValidation(t *testing.T) {
	if !StatusPending.Valid() || !StatusCompleted.Valid() {
		t.Error("lifecycle statuses must be valid")
	}
	if Status("WAITING").Valid() {
		t.Error("unknown status must be invalid")
	}
	if StatusPending.ValidReviewOutcome() {
		t.Error("PENDING is not a review outcome")
	}
	for _, s := range []Status{StatusReviewed, StatusApproved, StatusRejected, StatusCompleted} {
		if !s.ValidReviewOutcome() {
			t.Errorf("%s must be a valid review outcome", s)
		}
	}
}
