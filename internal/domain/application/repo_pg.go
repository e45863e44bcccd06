package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consult/consult/internal/platform/apperr"
	"github.com/consult/consult/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const appCols = `id, patient_id, doctor_id, medical_condition, symptoms, current_treatment,
	medical_history, urgency, preferred_consultation_date, consultation_fee,
	status, payment_status, doctor_notes, doctor_recommendation, reviewed_at,
	version, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, app *Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	app.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO applications (
			id, patient_id, doctor_id, medical_condition, symptoms, current_treatment,
			medical_history, urgency, preferred_consultation_date, consultation_fee,
			status, payment_status, version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		app.ID, app.PatientID, app.DoctorID, app.MedicalCondition, app.Symptoms, app.CurrentTreatment,
		app.MedicalHistory, app.Urgency, app.PreferredConsultationDate, app.ConsultationFee,
		app.Status, app.PaymentStatus, app.Version,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	return scanApp(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appCols+` FROM applications WHERE id = $1`, id))
}

// Update writes the review-axis fields guarded by the version counter. The
// payment axis is written only through SetPaymentStatus, so a review landing
// concurrently with a payment update cannot overwrite it. A stale version
// yields Conflict; a missing row yields NotFound.
func (r *repoPG) Update(ctx context.Context, app *Application) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE applications SET
			status=$3, doctor_notes=$4, doctor_recommendation=$5,
			reviewed_at=$6, version=version+1, updated_at=NOW()
		WHERE id = $1 AND version = $2`,
		app.ID, app.Version,
		app.Status, app.DoctorNotes, app.DoctorRecommendation,
		app.ReviewedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, app.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.New(apperr.NotFound, "application not found")
		}
		return apperr.Newf(apperr.Conflict, "application %s was modified concurrently", app.ID)
	}
	app.Version++
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error) {
	if status != "" {
		return r.list(ctx, `WHERE patient_id = $1 AND status = $2`, []interface{}{patientID, status}, limit, offset)
	}
	return r.list(ctx, `WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error) {
	if status != "" {
		return r.list(ctx, `WHERE doctor_id = $1 AND status = $2`, []interface{}{doctorID, status}, limit, offset)
	}
	return r.list(ctx, `WHERE doctor_id = $1`, []interface{}{doctorID}, limit, offset)
}

func (r *repoPG) List(ctx context.Context, status Status, limit, offset int) ([]*Application, int, error) {
	if status != "" {
		return r.list(ctx, `WHERE status = $1`, []interface{}{status}, limit, offset)
	}
	return r.list(ctx, ``, nil, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Application, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM applications `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM applications %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			appCols, where, n+1, n+2),
		listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var apps []*Application
	for rows.Next() {
		app, err := scanAppRows(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}
	return apps, total, nil
}

func (r *repoPG) SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE applications SET payment_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "application not found")
	}
	return nil
}

func (r *repoPG) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, nil
}

func scanApp(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.MedicalCondition, &a.Symptoms, &a.CurrentTreatment,
		&a.MedicalHistory, &a.Urgency, &a.PreferredConsultationDate, &a.ConsultationFee,
		&a.Status, &a.PaymentStatus, &a.DoctorNotes, &a.DoctorRecommendation, &a.ReviewedAt,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "application not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAppRows(rows pgx.Rows) (*Application, error) {
	var a Application
	err := rows.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.MedicalCondition, &a.Symptoms, &a.CurrentTreatment,
		&a.MedicalHistory, &a.Urgency, &a.PreferredConsultationDate, &a.ConsultationFee,
		&a.Status, &a.PaymentStatus, &a.DoctorNotes, &a.DoctorRecommendation, &a.ReviewedAt,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
