package scheduling

// edge is one directed transition in the lifecycle graph.
type edge struct {
	from Status
	to   Status
}

// transitionRoles is the single source of truth for which roles may trigger
// which transition. Pairs absent from the map are invalid transitions.
var transitionRoles = map[edge][]Role{
	{StatusPending, StatusConfirmed}:                {RoleStaff, RoleDoctor},
	{StatusConfirmed, StatusExamining}:              {RoleDoctor},
	{StatusExamining, StatusAwaitingResults}:        {RoleDoctor},
	{StatusAwaitingResults, StatusResultsAvailable}: {RoleNurse},
	{StatusResultsAvailable, StatusCompleted}:       {RoleStaff},

	// Cancellation stops being possible once clinical work is underway.
	{StatusPending, StatusCancelled}:   {RoleStaff, RoleDoctor},
	{StatusConfirmed, StatusCancelled}: {RoleStaff, RoleDoctor},
	{StatusExamining, StatusCancelled}: {RoleStaff, RoleDoctor},
}

// IsTerminal reports whether no transition leads out of s.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// checkTransition returns nil when role may move an appointment from one
// status to another, and a *TransitionError otherwise.
func checkTransition(from, to Status, role Role) error {
	roles, ok := transitionRoles[edge{from, to}]
	if !ok {
		return &TransitionError{From: from, To: to}
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Role: role}
}
