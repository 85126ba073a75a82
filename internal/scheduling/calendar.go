package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AvailableSlots returns the doctor's slot template minus the slots already
// claimed by non-cancelled appointments on date, preserving template order.
// The result is a snapshot: it carries no reservation, and a later booking
// attempt can still lose the slot to a concurrent request.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	day := DayOf(date)
	if day.Before(DayOf(s.now())) {
		return nil, &ValidationError{Field: "date", Reason: "must be today or later"}
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	claimed, err := s.repo.ClaimedSlots(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("load claimed slots: %w", err)
	}

	taken := make(map[string]struct{}, len(claimed))
	for _, slot := range claimed {
		taken[slot] = struct{}{}
	}

	open := make([]string, 0, len(doctor.SlotTemplate))
	for _, slot := range doctor.SlotTemplate {
		if _, ok := taken[slot]; !ok {
			open = append(open, slot)
		}
	}

	return open, nil
}
