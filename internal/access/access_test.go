package access

import "testing"

func TestCan(t *testing.T) {
	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleEmployee, ActionRead, true},
		{RoleEmployee, ActionComment, true},
		{RoleEmployee, ActionReact, true},
		{RoleEmployee, ActionShoutout, true},
		{RoleEmployee, ActionModerate, false},
		{RoleAdmin, ActionRead, true},
		{RoleAdmin, ActionModerate, true},
		{Role("ghost"), ActionRead, false},
	}

	for _, tt := range tests {
		if got := Can(tt.role, tt.action); got != tt.want {
			t.Errorf("Can(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("admin") != RoleAdmin {
		t.Fatal("expected admin to normalize to admin")
	}
	if Normalize("") != RoleEmployee {
		t.Fatal("expected empty role to normalize to employee")
	}
	if Normalize("superuser") != RoleEmployee {
		t.Fatal("expected unknown role to normalize to employee")
	}
}

func TestValid(t *testing.T) {
	if !Valid("employee") || !Valid("admin") {
		t.Fatal("expected employee and admin to be valid")
	}
	if Valid("superuser") || Valid("") {
		t.Fatal("expected unknown roles to be invalid")
	}
}
