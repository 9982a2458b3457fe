package service

import (
	"errors"
	"testing"

	"github.com/plateshare/accountcore/internal/core/domain"
)

func TestAuthorize_NilActor(t *testing.T) {
	if err := Authorize(nil, domain.RoleUser); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthorize_StrictEquality(t *testing.T) {
	tests := []struct {
		name     string
		actor    domain.Role
		required domain.Role
		allowed  bool
	}{
		{"user matches user", domain.RoleUser, domain.RoleUser, true},
		{"employee matches employee", domain.RoleEmployee, domain.RoleEmployee, true},
		{"admin matches admin", domain.RoleAdmin, domain.RoleAdmin, true},
		// No hierarchy: elevated roles do not imply each other.
		{"employee is not admin", domain.RoleEmployee, domain.RoleAdmin, false},
		{"admin is not employee", domain.RoleAdmin, domain.RoleEmployee, false},
		{"admin is not user", domain.RoleAdmin, domain.RoleUser, false},
		{"user is not admin", domain.RoleUser, domain.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(&domain.Identity{Username: "x", Role: tt.actor}, tt.required)
			if tt.allowed && err != nil {
				t.Fatalf("expected authorization, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, domain.ErrPermissionDenied) {
				t.Fatalf("expected ErrPermissionDenied, got %v", err)
			}
		})
	}
}
