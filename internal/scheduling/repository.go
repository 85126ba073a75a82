package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows ListAppointments. Nil pointer fields are not applied.
type ListFilter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *time.Time
	Status    *Status
	Limit     int
	Offset    int
}

// NewAppointment carries the validated inputs for a booking insert.
type NewAppointment struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	TimeSlot  string
	Reason    string
	Notes     string
}

// Repository contains all store interactions needed by the service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// ClaimedSlots returns the time_slot labels of all non-cancelled
	// appointments for (doctorID, date), in no particular order.
	ClaimedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)

	// CreatePendingAppointment inserts a pending appointment, or returns
	// ErrSlotConflict if a non-cancelled appointment already holds the same
	// (doctor, date, time_slot) tuple. The check and the insert are a single
	// atomic operation in every implementation.
	CreatePendingAppointment(ctx context.Context, in NewAppointment) (*Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, error)

	// UpdateAppointmentStatus applies a compare-and-swap on status: the write
	// happens only if the stored status still equals from. When no row
	// matches it returns ErrAppointmentNotFound; callers distinguish a
	// missing appointment from a lost race by refetching.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// FindLapsedPending returns pending appointments whose date is before day.
	FindLapsedPending(ctx context.Context, day time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

// ExaminationGateway is the collaborator holding examination records. The
// lifecycle engine only checks existence and artifact presence, never content.
type ExaminationGateway interface {
	Exists(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	ResultsAttached(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}

// PaymentGateway is the collaborator holding payment state for appointments.
type PaymentGateway interface {
	Status(ctx context.Context, appointmentID uuid.UUID) (PaymentStatus, error)
}
