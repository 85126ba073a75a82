package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableSlotsFullTemplateWhenEmpty(t *testing.T) {
	e := newTestEnv(t)

	slots, err := e.svc.AvailableSlots(context.Background(), e.doctor.ID, e.date)
	require.NoError(t, err)
	assert.Equal(t, testTemplate, slots)
}

func TestAvailableSlotsExcludesClaimedPreservingOrder(t *testing.T) {
	e := newTestEnv(t)

	// Claim the middle slot; order of the remaining two must match the
	// template, not booking order.
	_, err := e.svc.BookAppointment(context.Background(), e.booking("09:00-10:00"))
	require.NoError(t, err)

	slots, err := e.svc.AvailableSlots(context.Background(), e.doctor.ID, e.date)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00-09:00", "10:00-11:00"}, slots)
}

func TestAvailableSlotsIncludesCancelled(t *testing.T) {
	e := newTestEnv(t)

	appt, err := e.svc.BookAppointment(context.Background(), e.booking("08:00-09:00"))
	require.NoError(t, err)

	_, err = e.svc.UpdateStatus(context.Background(), appt.ID, RoleDoctor, StatusCancelled)
	require.NoError(t, err)

	slots, err := e.svc.AvailableSlots(context.Background(), e.doctor.ID, e.date)
	require.NoError(t, err)
	assert.Contains(t, slots, "08:00-09:00", "cancelled bookings do not claim slots")
}

func TestAvailableSlotsCountsAllNonCancelledStatuses(t *testing.T) {
	e := newTestEnv(t)

	appt, err := e.svc.BookAppointment(context.Background(), e.booking("08:00-09:00"))
	require.NoError(t, err)
	_, err = e.svc.UpdateStatus(context.Background(), appt.ID, RoleStaff, StatusConfirmed)
	require.NoError(t, err)

	slots, err := e.svc.AvailableSlots(context.Background(), e.doctor.ID, e.date)
	require.NoError(t, err)
	assert.NotContains(t, slots, "08:00-09:00")
}

func TestAvailableSlotsRejectsPastDate(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.AvailableSlots(context.Background(), e.doctor.ID, time.Now().AddDate(0, 0, -1))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "date", vErr.Field)
}

func TestAvailableSlotsToday(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.AvailableSlots(context.Background(), e.doctor.ID, time.Now())
	assert.NoError(t, err, "today is bookable")
}

func TestAvailableSlotsUnknownDoctor(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.AvailableSlots(context.Background(), uuid.New(), e.date)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}
