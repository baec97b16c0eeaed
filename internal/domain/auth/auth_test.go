package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Stronger123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPassword(hash, "Stronger123"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateToken(secret, Claims{UserID: "u1", Role: RoleEmployer}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != RoleEmployer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}

func TestCapability(t *testing.T) {
	tests := []struct {
		role string
		want Capability
	}{
		{RoleEmployee, SelfOnly},
		{RoleEmployer, Privileged},
		{RoleAdmin, Privileged},
		{"", SelfOnly},
	}
	for _, tc := range tests {
		if got := (Actor{Role: tc.role}).Capability(); got != tc.want {
			t.Fatalf("role %q: expected %v, got %v", tc.role, tc.want, got)
		}
	}
}
