package user

import "testing"

func TestDisplayNamePrefersUsername(t *testing.T) {
	u := &User{Username: "armbar_ana", FirstName: "Ana", LastName: "Silva"}
	if got := u.DisplayName(); got != "armbar_ana" {
		t.Errorf("expected username, got %q", got)
	}
}

func TestDisplayNameFallsBackToFullName(t *testing.T) {
	u := &User{FirstName: "Ana", LastName: "Silva"}
	if got := u.DisplayName(); got != "Ana Silva" {
		t.Errorf("expected full name, got %q", got)
	}
}
