package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgExaminationGateway reads the examinations table owned by the clinical
// records service. Only existence and artifact presence are consulted here.
type PgExaminationGateway struct {
	pool *pgxpool.Pool
}

func NewPgExaminationGateway(pool *pgxpool.Pool) *PgExaminationGateway {
	return &PgExaminationGateway{pool: pool}
}

func (g *PgExaminationGateway) Exists(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	err := g.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM examinations WHERE appointment_id = $1
		)
	`, appointmentID).Scan(&exists)
	return exists, err
}

func (g *PgExaminationGateway) ResultsAttached(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var attached bool
	err := g.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM examinations
			WHERE appointment_id = $1
			  AND paraclinical_results IS NOT NULL
		)
	`, appointmentID).Scan(&attached)
	return attached, err
}

// PgPaymentGateway reads the payments table owned by the billing service.
type PgPaymentGateway struct {
	pool *pgxpool.Pool
}

func NewPgPaymentGateway(pool *pgxpool.Pool) *PgPaymentGateway {
	return &PgPaymentGateway{pool: pool}
}

// Status returns the payment state linked to an appointment. An appointment
// with no payment row yet is treated as pending.
func (g *PgPaymentGateway) Status(ctx context.Context, appointmentID uuid.UUID) (PaymentStatus, error) {
	var status PaymentStatus
	err := g.pool.QueryRow(ctx, `
		SELECT status FROM payments WHERE appointment_id = $1
	`, appointmentID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentPending, nil
		}
		return "", err
	}
	return status, nil
}
