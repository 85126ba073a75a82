package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransitionHappyPath(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		role Role
	}{
		{StatusPending, StatusConfirmed, RoleStaff},
		{StatusPending, StatusConfirmed, RoleDoctor},
		{StatusConfirmed, StatusExamining, RoleDoctor},
		{StatusExamining, StatusAwaitingResults, RoleDoctor},
		{StatusAwaitingResults, StatusResultsAvailable, RoleNurse},
		{StatusResultsAvailable, StatusCompleted, RoleStaff},
		{StatusPending, StatusCancelled, RoleStaff},
		{StatusConfirmed, StatusCancelled, RoleDoctor},
		{StatusExamining, StatusCancelled, RoleStaff},
	}

	for _, c := range cases {
		assert.NoError(t, checkTransition(c.from, c.to, c.role),
			"%s -> %s by %s should be allowed", c.from, c.to, c.role)
	}
}

func TestCheckTransitionRejectsUnknownEdges(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
	}{
		{StatusPending, StatusExamining},          // skips confirmed
		{StatusConfirmed, StatusAwaitingResults},  // skips examining
		{StatusConfirmed, StatusPending},          // no reversals
		{StatusCompleted, StatusExamining},        // terminal
		{StatusCancelled, StatusPending},          // terminal
		{StatusAwaitingResults, StatusCancelled},  // too late to cancel
		{StatusResultsAvailable, StatusCancelled}, // too late to cancel
		{StatusCompleted, StatusCancelled},        // terminal
	}

	for _, c := range cases {
		err := checkTransition(c.from, c.to, RoleStaff)
		require.Error(t, err, "%s -> %s must be rejected", c.from, c.to)

		var tErr *TransitionError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, c.from, tErr.From)
		assert.Equal(t, c.to, tErr.To)
		assert.Empty(t, tErr.Role, "no-edge rejection should not name a role")
	}
}

func TestCheckTransitionRejectsUnauthorizedRoles(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		role Role
	}{
		{StatusPending, StatusConfirmed, RoleNurse},
		{StatusPending, StatusConfirmed, RolePatient},
		{StatusConfirmed, StatusExamining, RoleStaff},
		{StatusExamining, StatusAwaitingResults, RoleNurse},
		{StatusAwaitingResults, StatusResultsAvailable, RoleDoctor},
		{StatusResultsAvailable, StatusCompleted, RoleDoctor},
		{StatusPending, StatusCancelled, RolePatient},
		{StatusExamining, StatusCancelled, RoleAdmin},
	}

	for _, c := range cases {
		err := checkTransition(c.from, c.to, c.role)
		require.Error(t, err, "%s -> %s by %s must be rejected", c.from, c.to, c.role)

		var tErr *TransitionError
		require.ErrorAs(t, err, &tErr)
		assert.Equal(t, c.role, tErr.Role)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusCancelled))

	for _, s := range []Status{StatusPending, StatusConfirmed, StatusExamining, StatusAwaitingResults, StatusResultsAvailable} {
		assert.False(t, IsTerminal(s), "%s is not terminal", s)
	}
}
