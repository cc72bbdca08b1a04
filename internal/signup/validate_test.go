package signup

import (
	"strings"
	"testing"
	"time"

	"github.com/goldengeneration/signup-service/internal/apperrors"
)

func TestValidateUpload(t *testing.T) {
	const maxBytes = 5 * 1024 * 1024

	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"small jpeg accepted", "image/jpeg", 1024, false},
		{"png accepted", "image/png", 2 * 1024 * 1024, false},
		{"legacy jpg content type accepted", "image/jpg", 1024, false},
		{"jpeg over the size limit rejected", "image/jpeg", 6 * 1024 * 1024, true},
		{"exactly at the limit accepted", "image/png", maxBytes, false},
		{"gif rejected", "image/gif", 1024, true},
		{"pdf rejected", "application/pdf", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.contentType, tt.size, maxBytes)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUpload(%q, %d) error = %v, wantErr %v", tt.contentType, tt.size, err, tt.wantErr)
			}
			if err != nil && apperrors.CodeOf(err) != apperrors.CodeValidationFailed {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestValidateIdentity(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	valid := func() IdentityForm {
		return IdentityForm{
			FirstName:   "דוד",
			LastName:    "כהן",
			IDNumber:    "213697501",
			DateOfBirth: "1960-03-15",
			Gender:      "male",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*IdentityForm)
		wantErr string
	}{
		{"valid form", func(f *IdentityForm) {}, ""},
		{"missing first name", func(f *IdentityForm) { f.FirstName = "" }, "first name"},
		{"missing last name", func(f *IdentityForm) { f.LastName = "" }, "last name"},
		{"short id number", func(f *IdentityForm) { f.IDNumber = "12345678" }, "9 digits"},
		{"id number with letters", func(f *IdentityForm) { f.IDNumber = "21369750a" }, "9 digits"},
		{"unparseable date", func(f *IdentityForm) { f.DateOfBirth = "15.03.1960" }, "valid"},
		{"unknown gender", func(f *IdentityForm) { f.Gender = "robot" }, "gender"},
		{"under the minimum age", func(f *IdentityForm) { f.DateOfBirth = "1990-01-01" }, "50 years"},
		{"fifty years old exactly", func(f *IdentityForm) { f.DateOfBirth = "1976-06-01" }, ""},
		{"one day short of fifty", func(f *IdentityForm) { f.DateOfBirth = "1976-06-02" }, "50 years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid()
			tt.mutate(&form)
			err := validateIdentityAt(&form, now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected an error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"birthday passed this year", time.Date(1960, time.March, 15, 0, 0, 0, 0, time.UTC), 66},
		{"birthday today", time.Date(1976, time.June, 1, 0, 0, 0, 0, time.UTC), 50},
		{"birthday tomorrow", time.Date(1976, time.June, 2, 0, 0, 0, 0, time.UTC), 49},
		{"birthday later this year", time.Date(1950, time.December, 31, 0, 0, 0, 0, time.UTC), 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Age(tt.dob, now); got != tt.want {
				t.Errorf("Age = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	valid := func() Credentials {
		return Credentials{
			Email:           "ruth@example.com",
			Username:        "ruth_cohen",
			Password:        "Sunshine1",
			ConfirmPassword: "Sunshine1",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Credentials)
		wantErr bool
	}{
		{"valid credentials", func(c *Credentials) {}, false},
		{"missing email", func(c *Credentials) { c.Email = "" }, true},
		{"malformed email", func(c *Credentials) { c.Email = "not-an-email" }, true},
		{"short username", func(c *Credentials) { c.Username = "ab" }, true},
		{"username with spaces", func(c *Credentials) { c.Username = "ruth cohen" }, true},
		{"short password", func(c *Credentials) { c.Password, c.ConfirmPassword = "Ab1", "Ab1" }, true},
		{"password without digits", func(c *Credentials) { c.Password, c.ConfirmPassword = "Sunshines", "Sunshines" }, true},
		{"password without uppercase", func(c *Credentials) { c.Password, c.ConfirmPassword = "sunshine1", "sunshine1" }, true},
		{"mismatched confirmation", func(c *Credentials) { c.ConfirmPassword = "Sunshine2" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := valid()
			tt.mutate(&creds)
			err := ValidateCredentials(&creds)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCredentials error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
