package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/clinicdesk/scheduling-engine/internal/redis"
)

const (
	EventBookingCreated = "BOOKING_CREATED"
	EventStatusChanged  = "STATUS_CHANGED"
	EventBookingLapsed  = "BOOKING_LAPSED"
)

// Service is the scheduling core: slot calendar, booking allocator and
// lifecycle state machine over a single durable appointment store.
type Service struct {
	repo     Repository
	exams    ExaminationGateway
	payments PaymentGateway
	locker   redisclient.Locker
	logger   *zap.Logger

	now func() time.Time
}

func NewService(repo Repository, exams ExaminationGateway, payments PaymentGateway, locker redisclient.Locker, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		exams:    exams,
		payments: payments,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// BookingRequest carries the inputs of one booking attempt.
type BookingRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	TimeSlot  string
	Reason    string
	Notes     string
}

// BookAppointment reserves a slot for a patient, creating a pending
// appointment. The slot check and the insert are atomic with respect to the
// uniqueness invariant: under concurrent requests for the same
// (doctor, date, slot) exactly one caller succeeds and the rest get
// ErrSlotConflict. A short per-tuple lock keeps hot slots from hammering the
// store; the store's conditional insert remains the authority.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Reason: "must not be empty"}
	}

	day := DayOf(req.Date)
	if day.Before(DayOf(s.now())) {
		return nil, &ValidationError{Field: "date", Reason: "must be today or later"}
	}

	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if !slotInTemplate(doctor.SlotTemplate, req.TimeSlot) {
		return nil, &ValidationError{Field: "time_slot", Reason: "not in the doctor's schedule"}
	}

	if _, err := s.repo.GetPatientByID(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	insert := func(ctx context.Context) (*Appointment, error) {
		appt, err := s.repo.CreatePendingAppointment(ctx, NewAppointment{
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			Date:      day,
			TimeSlot:  req.TimeSlot,
			Reason:    strings.TrimSpace(req.Reason),
			Notes:     req.Notes,
		})
		if err != nil {
			return nil, err
		}

		s.logEvent(ctx, appt.ID, EventBookingCreated, map[string]any{
			"doctor_id":  req.DoctorID.String(),
			"patient_id": req.PatientID.String(),
			"date":       day.Format(DateLayout),
			"time_slot":  req.TimeSlot,
		})

		return appt, nil
	}

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, req.DoctorID, day.Format(DateLayout), req.TimeSlot, func(lockCtx context.Context) error {
		appt, err := insert(lockCtx)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})

	if err != nil {
		switch {
		// A held lock means a competing booking for the same tuple is in
		// flight; surface it uniformly as a conflict.
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, ErrSlotConflict
		// The lock only sheds contention. With the backend down, the store's
		// conditional insert still enforces uniqueness, so book without it.
		case errors.Is(err, redisclient.ErrLockUnavailable):
			s.logger.Warn("booking lock backend unavailable, relying on store uniqueness",
				zap.String("doctor_id", req.DoctorID.String()),
				zap.Error(err),
			)
			created, err = insert(ctx)
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("doctor_id", req.DoctorID.String()),
		zap.String("date", day.Format(DateLayout)),
		zap.String("time_slot", req.TimeSlot),
	)

	return created, nil
}

// UpdateStatus moves an appointment along the lifecycle graph on behalf of a
// role. The write is a compare-and-swap on the status read here, so two racing
// transitions cannot skip a state: the loser gets ErrStaleStatus.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, role Role, target Status) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if IsTerminal(appt.Status) {
		return nil, &TransitionError{From: appt.Status, To: target}
	}

	if err := checkTransition(appt.Status, target, role); err != nil {
		return nil, err
	}

	if err := s.checkPreconditions(ctx, appt.ID, target); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, target)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// No row matched (id, expected status). If the appointment still
			// exists, a concurrent transition won the race.
			if _, getErr := s.repo.GetAppointmentByID(ctx, id); getErr == nil {
				return nil, ErrStaleStatus
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"from": string(appt.Status),
		"to":   string(target),
		"role": string(role),
	})

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("from", string(appt.Status)),
		zap.String("to", string(target)),
		zap.String("role", string(role)),
	)

	return updated, nil
}

// checkPreconditions enforces the collaborator gates on specific edges.
func (s *Service) checkPreconditions(ctx context.Context, appointmentID uuid.UUID, target Status) error {
	switch target {
	case StatusAwaitingResults:
		ok, err := s.exams.Exists(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("check examination: %w", err)
		}
		if !ok {
			return ErrExaminationNotStarted
		}
	case StatusResultsAvailable:
		ok, err := s.exams.ResultsAttached(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("check examination results: %w", err)
		}
		if !ok {
			return ErrResultsNotAttached
		}
	case StatusCompleted:
		status, err := s.payments.Status(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("check payment: %w", err)
		}
		if status != PaymentCompleted {
			return ErrPaymentNotSettled
		}
	}
	return nil
}

// CancelLapsedPending cancels pending appointments whose date has passed
// without confirmation. Intended to be called periodically by the lapse
// worker. Returns the number of appointments cancelled.
func (s *Service) CancelLapsedPending(ctx context.Context) (int, error) {
	today := DayOf(s.now())

	lapsed, err := s.repo.FindLapsedPending(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("find lapsed pending appointments: %w", err)
	}

	cancelled := 0
	for _, appt := range lapsed {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if err != nil {
			// Already confirmed or cancelled in the meantime; skip it.
			if errors.Is(err, ErrAppointmentNotFound) {
				continue
			}
			s.logger.Warn("failed to cancel lapsed appointment",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err),
			)
			continue
		}

		cancelled++
		s.logEvent(ctx, appt.ID, EventBookingLapsed, map[string]any{
			"date":      appt.Date.Format(DateLayout),
			"time_slot": appt.TimeSlot,
		})
	}

	return cancelled, nil
}

// GetAppointment retrieves a fully hydrated appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointments retrieves appointments matching the filter.
func (s *Service) ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, error) {
	if f.Limit <= 0 {
		f.Limit = 20 // default
	}
	if f.Limit > 100 {
		f.Limit = 100 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	appointments, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func slotInTemplate(template []string, slot string) bool {
	for _, s := range template {
		if s == slot {
			return true
		}
	}
	return false
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
