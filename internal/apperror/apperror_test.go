package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("member", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("pin", "pin must be 4 digits"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("member", "phone 01012345678"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("admin role required"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "InsufficientParticipants wraps its sentinel",
			err:       InsufficientParticipants(5, 8),
			target:    ErrInsufficientParticipants,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("creating match: %w", NotFound("member", "x")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrForbidden",
			err:       NotFound("match", "abc123"),
			target:    ErrForbidden,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("match", "abc123"),
			wantMessage: "match not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("name", "name is required"),
			wantMessage: "name is required",
		},
		{
			name:        "InsufficientParticipants reports counts",
			err:         InsufficientParticipants(5, 8),
			wantMessage: "not enough members for a tournament: have 5, need 8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestTransientKeepsCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := fmt.Errorf("archiving: %w", Transient("archive season", cause))

	if !IsTransient(err) {
		t.Fatal("IsTransient() = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want the driver error to stay reachable")
	}
	if IsTransient(NotFound("member", "x")) {
		t.Error("IsTransient(NotFound) = true, want false")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("phone", "invalid phone number")

	if err.Field != "phone" {
		t.Errorf("Field = %q, want %q", err.Field, "phone")
	}
}
