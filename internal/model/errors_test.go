package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Kind: FailureAuth, Message: "no token"},
			want: "auth: no token",
		},
		{
			name: "field",
			err:  &Error{Kind: FailureValidation, Field: "email", Message: "Email is required"},
			want: "validation [email]: Email is required",
		},
		{
			name: "wrapped cause",
			err:  &Error{Kind: FailureInternal, Message: "could not persist cart", Err: errors.New("disk full")},
			want: "internal: could not persist cart (disk full)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("password", "Password must be at least 6 characters")

	if err.Kind != FailureValidation {
		t.Errorf("Kind = %q, want %q", err.Kind, FailureValidation)
	}
	if err.Field != "password" {
		t.Errorf("Field = %q, want %q", err.Field, "password")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("error should wrap ErrInvalidInput")
	}
}

func TestNewStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("cart", cause)

	if err.Message != "could not persist cart" {
		t.Errorf("Message = %q", err.Message)
	}
	if !errors.Is(err, ErrStorage) {
		t.Error("error should wrap ErrStorage")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, want the cause included", err.Error())
	}
}

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", NewValidationError("x", "y"), ErrInvalidInput},
		{"unauthorized", NewUnauthorizedError("x"), ErrUnauthorized},
		{"storage", NewStorageError("x", nil), ErrStorage},
		{"wrapped", fmt.Errorf("saving: %w", NewStorageError("user", nil)), ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   FailureKind
		wantMsg    string
		wantFields int
	}{
		{"validation keeps field", NewValidationError("email", "Email is required"), FailureValidation, "Email is required", 1},
		{"wrapped unauthorized", fmt.Errorf("token: %w", NewUnauthorizedError("no token")), FailureAuth, "no token", 0},
		{"storage", NewStorageError("cart", errors.New("disk full")), FailureInternal, "could not persist cart", 0},
		{"plain error", errors.New("boom"), FailureInternal, "An unexpected error occurred.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FromError(tt.err)
			if res.Success {
				t.Fatal("FromError should never succeed")
			}
			if res.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", res.Kind, tt.wantKind)
			}
			if res.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", res.Message, tt.wantMsg)
			}
			if res.Status != 0 {
				t.Errorf("Status = %d, want 0 for a local failure", res.Status)
			}
			if len(res.Errors) != tt.wantFields {
				t.Errorf("len(Errors) = %d, want %d", len(res.Errors), tt.wantFields)
			}
		})
	}
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   FailureKind
	}{
		{200, FailureNone},
		{204, FailureNone},
		{400, FailureValidation},
		{401, FailureAuth},
		{403, FailureForbidden},
		{404, FailureNotFound},
		{409, FailureConflict},
		{422, FailureValidation},
		{429, FailureUpstream},
		{500, FailureServer},
		{503, FailureServer},
	}

	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestResult_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		res  *Result
		want int
	}{
		{"success", OK(nil), 200},
		{"declined", Declined("Item not added. Current cart unchanged."), 200},
		{"auth", Fail(FailureAuth, ""), 401},
		{"conflict", Fail(FailureConflict, ""), 409},
		{"validation", Fail(FailureValidation, ""), 422},
		{"network", Fail(FailureNetwork, ""), 502},
		{"internal", Fail(FailureInternal, ""), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResult_FieldMessages(t *testing.T) {
	res := &Result{Errors: map[string][]string{
		"password": {"Password is too short"},
		"email":    {"Email is taken", ""},
	}}

	got := res.FieldMessages()
	want := []string{"Email is taken", "Password is too short"}
	if len(got) != len(want) {
		t.Fatalf("FieldMessages() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FieldMessages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResult_Decode(t *testing.T) {
	res := OKWith(map[string]int{"count": 3})

	var out struct {
		Count int `json:"count"`
	}
	if err := res.Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Count != 3 {
		t.Errorf("Count = %d, want 3", out.Count)
	}

	if err := Fail(FailureServer, "x").Decode(&out); err == nil {
		t.Error("Decode() on empty data should fail")
	}
}
