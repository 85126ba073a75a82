package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotConflict means the (doctor, date, time_slot) tuple was claimed by
	// a competing booking. The caller should re-read availability and retry.
	ErrSlotConflict = errors.New("time slot already booked")

	// ErrStaleStatus means a concurrent transition changed the appointment
	// between read and write. The caller should refetch and retry.
	ErrStaleStatus = errors.New("appointment status changed concurrently")

	ErrPaymentNotSettled     = errors.New("payment for this appointment is not settled")
	ErrExaminationNotStarted = errors.New("no examination record exists for this appointment")
	ErrResultsNotAttached    = errors.New("no paraclinical results attached to the examination")
)

// ValidationError names the request field that failed a semantic check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransitionError reports a lifecycle transition that is not permitted, either
// because no edge exists between the two statuses or because the requesting
// role is not authorized for it. Role is empty in the no-edge case.
type TransitionError struct {
	From Status
	To   Status
	Role Role
}

func (e *TransitionError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("role %s may not move an appointment from %s to %s", e.Role, e.From, e.To)
	}
	return fmt.Sprintf("no transition from %s to %s", e.From, e.To)
}
