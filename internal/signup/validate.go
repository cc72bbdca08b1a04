/**
 * Wizard validation rules.
 *
 * Upload constraints run before the extraction pipeline; a rejected file
 * never reaches it. Identity rules run when the user submits the reviewed
 * form, including the community's minimum-age requirement, which is a
 * business rule of the sign-up step, not of the extractor.
 */

package signup

import (
	"fmt"
	"regexp"
	"time"

	"github.com/goldengeneration/signup-service/internal/apperrors"
)

// MinAge is the community's minimum member age.
const MinAge = 50

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

var (
	idNumberRE = regexp.MustCompile(`^\d{9}$`)
	emailRE    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	lowerRE    = regexp.MustCompile(`[a-z]`)
	upperRE    = regexp.MustCompile(`[A-Z]`)
	digitRE    = regexp.MustCompile(`\d`)
)

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

// ValidateUpload enforces the file constraints for ID images: JPEG/PNG
// only, bounded size.
func ValidateUpload(contentType string, size, maxBytes int64) error {
	if size > maxBytes {
		return apperrors.NewValidationError("idImage",
			fmt.Sprintf("file exceeds the %dMB size limit", maxBytes/(1024*1024)))
	}
	if !acceptedImageTypes[contentType] {
		return apperrors.NewValidationError("idImage", "only JPEG and PNG images are accepted")
	}
	return nil
}

// ValidateIdentity checks the reviewed identity form.
func ValidateIdentity(form *IdentityForm) error {
	return validateIdentityAt(form, time.Now())
}

func validateIdentityAt(form *IdentityForm, now time.Time) error {
	if form.FirstName == "" {
		return apperrors.NewValidationError("firstName", "first name is required")
	}
	if form.LastName == "" {
		return apperrors.NewValidationError("lastName", "last name is required")
	}
	if !idNumberRE.MatchString(form.IDNumber) {
		return apperrors.NewValidationError("idNumber", "ID number must be exactly 9 digits")
	}
	if !validGenders[form.Gender] {
		return apperrors.NewValidationError("gender", "gender must be male, female or other")
	}

	dob, err := time.Parse("2006-01-02", form.DateOfBirth)
	if err != nil {
		return apperrors.NewValidationError("dateOfBirth", "date of birth must be a valid YYYY-MM-DD date")
	}
	if Age(dob, now) < MinAge {
		return apperrors.NewValidationError("dateOfBirth",
			fmt.Sprintf("members must be at least %d years old", MinAge))
	}
	return nil
}

// Age computes full years between dob and now.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// ValidateCredentials checks the account step.
func ValidateCredentials(c *Credentials) error {
	if c.Email == "" {
		return apperrors.NewValidationError("email", "email is required")
	}
	if !emailRE.MatchString(c.Email) {
		return apperrors.NewValidationError("email", "email address is invalid")
	}
	if len(c.Username) < 3 {
		return apperrors.NewValidationError("username", "username must be at least 3 characters")
	}
	if !usernameRE.MatchString(c.Username) {
		return apperrors.NewValidationError("username", "username may only contain letters, digits and underscores")
	}
	if len(c.Password) < 8 {
		return apperrors.NewValidationError("password", "password must be at least 8 characters")
	}
	if !lowerRE.MatchString(c.Password) || !upperRE.MatchString(c.Password) || !digitRE.MatchString(c.Password) {
		return apperrors.NewValidationError("password",
			"password must contain a lowercase letter, an uppercase letter and a digit")
	}
	if c.ConfirmPassword != c.Password {
		return apperrors.NewValidationError("confirmPassword", "passwords do not match")
	}
	return nil
}
