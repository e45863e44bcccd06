package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the user directory: base records plus the role payloads.
type Repository interface {
	CreatePatient(ctx context.Context, p *Patient) error
	CreateDoctor(ctx context.Context, d *Doctor) error

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)

	UpdatePatient(ctx context.Context, p *Patient) error
	UpdateDoctor(ctx context.Context, d *Doctor) error

	ListAvailableDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	ListDoctorsBySpecialization(ctx context.Context, specialization string, limit, offset int) ([]*Doctor, int, error)
	SearchDoctors(ctx context.Context, query string, limit, offset int) ([]*Doctor, int, error)
	ListPendingDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	ListByRole(ctx context.Context, role Role, limit, offset int) ([]*User, int, error)
	ListIDsByRole(ctx context.Context, role Role) ([]uuid.UUID, error)

	SetDoctorAvailability(ctx context.Context, id uuid.UUID, available bool) error
	SetDoctorVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error

	CountByRole(ctx context.Context) (map[Role]int, error)
}
