package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&specialty,
		&d.SlotTemplate,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&a.TimeSlot,
		&a.Reason,
		&a.Notes,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = DayOf(a.Date)
	return &a, nil
}

const appointmentColumns = `id, doctor_id, patient_id, date, time_slot, reason, notes, status, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, slot_template, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ClaimedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time_slot
		FROM appointments
		WHERE doctor_id = $1
		  AND date = $2
		  AND status <> 'cancelled'
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// CreatePendingAppointment relies on the partial unique index over
// (doctor_id, date, time_slot) WHERE status <> 'cancelled': the insert either
// commits or fails with a unique violation, which maps to ErrSlotConflict.
func (r *PgRepository) CreatePendingAppointment(ctx context.Context, in NewAppointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', now(), now())
		RETURNING `+appointmentColumns+`
	`, id, in.DoctorID, in.PatientID, in.Date, in.TimeSlot, in.Reason, in.Notes)

	appt, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	return appt, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor, err := r.GetDoctorByID(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}

	patient, err := r.GetPatientByID(ctx, appt.PatientID)
	if err != nil {
		return nil, err
	}

	return &AppointmentDetail{
		Appointment: *appt,
		Doctor:      doctor,
		Patient:     patient,
	}, nil
}

func (r *PgRepository) ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DoctorID != nil {
		add("a.doctor_id = $%d", *f.DoctorID)
	}
	if f.PatientID != nil {
		add("a.patient_id = $%d", *f.PatientID)
	}
	if f.Date != nil {
		add("a.date = $%d", DayOf(*f.Date))
	}
	if f.Status != nil {
		add("a.status = $%d", *f.Status)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT a.id, a.doctor_id, a.patient_id, a.date, a.time_slot, a.reason, a.notes, a.status, a.created_at, a.updated_at,
		       d.id, d.name, d.specialty, d.slot_template, d.created_at, d.updated_at,
		       p.id, p.name, p.email, p.created_at, p.updated_at
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		%s
		ORDER BY a.date, a.time_slot, a.created_at
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var (
			a Appointment
			d Doctor
			p Patient
		)
		err := rows.Scan(
			&a.ID, &a.DoctorID, &a.PatientID, &a.Date, &a.TimeSlot, &a.Reason, &a.Notes, &a.Status, &a.CreatedAt, &a.UpdatedAt,
			&d.ID, &d.Name, &d.Specialty, &d.SlotTemplate, &d.CreatedAt, &d.UpdatedAt,
			&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		a.Date = DayOf(a.Date)
		result = append(result, AppointmentDetail{Appointment: a, Doctor: &d, Patient: &p})
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) FindLapsedPending(ctx context.Context, day time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND date < $1
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
