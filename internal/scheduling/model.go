package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment. The happy path runs
// pending -> confirmed -> examining -> awaiting_clinical_results ->
// paraclinical_results_available -> completed; cancelled is reachable from the
// first three states only.
type Status string

const (
	StatusPending          Status = "pending"
	StatusConfirmed        Status = "confirmed"
	StatusExamining        Status = "examining"
	StatusAwaitingResults  Status = "awaiting_clinical_results"
	StatusResultsAvailable Status = "paraclinical_results_available"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
)

// Role identifies the kind of actor requesting a lifecycle transition.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// DateLayout is the wire format for appointment dates (calendar days).
const DateLayout = "2006-01-02"

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Doctor carries the fixed per-day slot template that defines the universe of
// bookable slots, e.g. ["08:00-09:00", "09:00-10:00"].
type Doctor struct {
	ID           uuid.UUID
	Name         string
	Specialty    *string
	SlotTemplate []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Appointment struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time // calendar day, midnight UTC
	TimeSlot  string
	Reason    string
	Notes     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AppointmentDetail struct {
	Appointment
	Doctor  *Doctor
	Patient *Patient
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// PaymentStatus mirrors the payment collaborator's states. Only "completed"
// unlocks the final lifecycle transition.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// DayOf truncates t to its calendar day in UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
