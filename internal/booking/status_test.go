package booking

import "testing"

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, false},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusTerminality(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusRejected, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
		if s.IsActive() {
			t.Errorf("expected %s to be outside the active set", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusApproved} {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
		if !s.IsActive() {
			t.Errorf("expected %s to be active", s)
		}
	}
	if Status("unknown").IsValid() {
		t.Errorf("expected unknown status to be invalid")
	}
}

func TestRoleCapabilities(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{RoleAdmin, RoleLecturer, RoleStudent} {
		if !Allowed(role, ActionSubmit) {
			t.Errorf("expected %s to be allowed to submit", role)
		}
		if !Allowed(role, ActionCancel) {
			t.Errorf("expected %s to be allowed to cancel", role)
		}
	}
	for _, action := range []Action{ActionApprove, ActionReject} {
		if !Allowed(RoleAdmin, action) {
			t.Errorf("expected admin to be allowed to %s", action)
		}
		if Allowed(RoleLecturer, action) || Allowed(RoleStudent, action) {
			t.Errorf("expected only admins to %s", action)
		}
	}
}
