package application

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists applications. Update is version-checked: it fails
// with a conflict when the stored version no longer matches the one read.
// It covers the review axis only; the payment axis is written exclusively
// through SetPaymentStatus so the two never race each other.
// The status argument on the list methods filters when non-empty.
type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	Update(ctx context.Context, app *Application) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status Status, limit, offset int) ([]*Application, int, error)
	List(ctx context.Context, status Status, limit, offset int) ([]*Application, int, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
