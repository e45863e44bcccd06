package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const userCols = `id, email, first_name, last_name, phone, role, is_active, created_at, updated_at`

const doctorCols = `u.id, u.email, u.first_name, u.last_name, u.phone, u.role, u.is_active, u.created_at, u.updated_at,
	d.license_number, d.specialization, d.years_of_experience, d.qualification, d.hospital_affiliation,
	d.consultation_fee, d.bio, d.is_verified, d.is_available, d.rating, d.total_reviews`

const patientCols = `u.id, u.email, u.first_name, u.last_name, u.phone, u.role, u.is_active, u.created_at, u.updated_at,
	p.date_of_birth, p.gender, p.address, p.emergency_contact, p.medical_history, p.current_medications, p.allergies`

func (r *repoPG) CreatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Role = RolePatient
	p.IsActive = true

	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO users (id, email, first_name, last_name, phone, role, is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Email, p.FirstName, p.LastName, p.Phone, p.Role, p.IsActive,
		); err != nil {
			return err
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO patient_profiles (user_id, date_of_birth, gender, address, emergency_contact,
				medical_history, current_medications, allergies)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			p.ID, p.DateOfBirth, p.Gender, p.Address, p.EmergencyContact,
			p.MedicalHistory, p.CurrentMedications, p.Allergies,
		)
		return err
	})
}

func (r *repoPG) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Role = RoleDoctor
	d.IsActive = true
	d.IsVerified = false
	d.IsAvailable = true

	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO users (id, email, first_name, last_name, phone, role, is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			d.ID, d.Email, d.FirstName, d.LastName, d.Phone, d.Role, d.IsActive,
		); err != nil {
			return err
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO doctor_profiles (user_id, license_number, specialization, years_of_experience,
				qualification, hospital_affiliation, consultation_fee, bio, is_verified, is_available)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			d.ID, d.LicenseNumber, d.Specialization, d.YearsOfExperience,
			d.Qualification, d.HospitalAffiliation, d.ConsultationFee, d.Bio, d.IsVerified, d.IsAvailable,
		)
		return err
	})
}

func (r *repoPG) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *repoPG) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientCols+`
		FROM users u JOIN patient_profiles p ON p.user_id = u.id
		WHERE u.id = $1`, id))
}

func (r *repoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `
		SELECT `+doctorCols+`
		FROM users u JOIN doctor_profiles d ON d.user_id = u.id
		WHERE u.id = $1`, id))
}

func (r *repoPG) UpdatePatient(ctx context.Context, p *Patient) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			UPDATE users SET first_name=$2, last_name=$3, phone=$4, updated_at=NOW()
			WHERE id = $1`,
			p.ID, p.FirstName, p.LastName, p.Phone,
		); err != nil {
			return err
		}
		_, err := r.conn(ctx).Exec(ctx, `
			UPDATE patient_profiles SET date_of_birth=$2, gender=$3, address=$4, emergency_contact=$5,
				medical_history=$6, current_medications=$7, allergies=$8
			WHERE user_id = $1`,
			p.ID, p.DateOfBirth, p.Gender, p.Address, p.EmergencyContact,
			p.MedicalHistory, p.CurrentMedications, p.Allergies,
		)
		return err
	})
}

func (r *repoPG) UpdateDoctor(ctx context.Context, d *Doctor) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			UPDATE users SET first_name=$2, last_name=$3, phone=$4, updated_at=NOW()
			WHERE id = $1`,
			d.ID, d.FirstName, d.LastName, d.Phone,
		); err != nil {
			return err
		}
		_, err := r.conn(ctx).Exec(ctx, `
			UPDATE doctor_profiles SET specialization=$2, years_of_experience=$3, qualification=$4,
				hospital_affiliation=$5, consultation_fee=$6, bio=$7
			WHERE user_id = $1`,
			d.ID, d.Specialization, d.YearsOfExperience, d.Qualification,
			d.HospitalAffiliation, d.ConsultationFee, d.Bio,
		)
		return err
	})
}

func (r *repoPG) ListAvailableDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	const where = `WHERE u.is_active = true AND d.is_verified = true AND d.is_available = true`
	return r.listDoctors(ctx, where, nil, limit, offset)
}

func (r *repoPG) ListDoctorsBySpecialization(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error) {
	const where = `WHERE u.is_active = true AND d.is_verified = true AND d.specialization ILIKE $1`
	return r.listDoctors(ctx, where, []interface{}{specialization}, limit, offset)
}

func (r *repoPG) SearchDoctors(ctx context.Context, query string, limit, offset int) ([]*Doctor, int, error) {
	const where = `WHERE u.is_active = true AND d.is_verified = true
		AND (u.first_name ILIKE '%' || $1 || '%' OR u.last_name ILIKE '%' || $1 || '%'
			OR d.specialization ILIKE '%' || $1 || '%' OR d.hospital_affiliation ILIKE '%' || $1 || '%')`
	return r.listDoctors(ctx, where, []interface{}{query}, limit, offset)
}

func (r *repoPG) ListPendingDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	const where = `WHERE u.is_active = true AND d.is_verified = false`
	return r.listDoctors(ctx, where, nil, limit, offset)
}

func (r *repoPG) listDoctors(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Doctor, int, error) {
	base := `FROM users u JOIN doctor_profiles d ON d.user_id = u.id ` + where

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	listArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` `+base+` ORDER BY d.rating DESC, u.last_name `+
			limitOffsetClause(n+1, n+2),
		listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctorRows(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, d)
	}
	return doctors, total, nil
}

func (r *repoPG) ListByRole(ctx context.Context, role Role, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, &u)
	}
	return users, total, nil
}

func (r *repoPG) ListIDsByRole(ctx context.Context, role Role) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id FROM users WHERE role = $1 AND is_active = true`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *repoPG) SetDoctorAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor_profiles SET is_available = $2 WHERE user_id = $1`, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SetDoctorVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor_profiles SET is_verified = $2 WHERE user_id = $1`, id, verified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) CountByRole(ctx context.Context) (map[Role]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Role]int)
	for rows.Next() {
		var role Role
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, nil
}

func limitOffsetClause(limitPos, offsetPos int) string {
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", limitPos, offsetPos)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.Role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&p.DateOfBirth, &p.Gender, &p.Address, &p.EmergencyContact, &p.MedicalHistory, &p.CurrentMedications, &p.Allergies,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID, &d.Email, &d.FirstName, &d.LastName, &d.Phone, &d.Role, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		&d.LicenseNumber, &d.Specialization, &d.YearsOfExperience, &d.Qualification, &d.HospitalAffiliation,
		&d.ConsultationFee, &d.Bio, &d.IsVerified, &d.IsAvailable, &d.Rating, &d.TotalReviews,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDoctorRows(rows pgx.Rows) (*Doctor, error) {
	var d Doctor
	err := rows.Scan(
		&d.ID, &d.Email, &d.FirstName, &d.LastName, &d.Phone, &d.Role, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		&d.LicenseNumber, &d.Specialization, &d.YearsOfExperience, &d.Qualification, &d.HospitalAffiliation,
		&d.ConsultationFee, &d.Bio, &d.IsVerified, &d.IsAvailable, &d.Rating, &d.TotalReviews,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
