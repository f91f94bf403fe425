package blogsdk

import (
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 6
	minTitleLength    = 3
	minContentLength  = 5

	msgPasswordsDiffer = "Passwords do not match"
)

// Each Validate returns field name -> message, or nil when the input is
// acceptable. Field names match the JSON/form names so callers can render the
// messages next to the right input.

// Validate checks the login form.
func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)
	required(errs, "email", r.Email, "Email is required")
	if r.Password == "" {
		errs["password"] = "Password is required"
	}
	return nilIfEmpty(errs)
}

// Validate checks the OTP step of login.
func (r LoginOTPRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.UserID == "" {
		errs["user_id"] = "Login session missing, please sign in again"
	}
	required(errs, "otp", r.OTP, "OTP is required")
	return nilIfEmpty(errs)
}

// Validate checks the registration form.
func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)
	required(errs, "first_name", r.FirstName, "First name is required")
	required(errs, "last_name", r.LastName, "Last name is required")
	required(errs, "email", r.Email, "Email is required")
	required(errs, "username", r.Username, "Username is required")
	if utf8.RuneCountInString(r.Password) < minPasswordLength {
		errs["password"] = "Password must be at least 6 characters"
	}
	if r.Password != r.ConfirmPassword {
		errs["confirm_password"] = msgPasswordsDiffer
	}
	return nilIfEmpty(errs)
}

// Validate checks the registration code step.
func (r VerifyEmailRequest) Validate() map[string]string {
	errs := make(map[string]string)
	required(errs, "email", r.Email, "Email is required")
	required(errs, "code", r.Code, "OTP is required")
	return nilIfEmpty(errs)
}

// Validate checks the first step of a password reset.
func (r PasswordResetOTPRequest) Validate() map[string]string {
	errs := make(map[string]string)
	required(errs, "email", r.Email, "Email is required")
	return nilIfEmpty(errs)
}

// Validate checks the final step of a password reset: the code plus a new
// password entered twice.
func (r PasswordResetRequest) Validate() map[string]string {
	errs := r.validateCode()
	if errs == nil {
		errs = make(map[string]string)
	}
	switch {
	case r.NewPassword == "":
		errs["new_password"] = "Password is required"
	case r.NewPassword != r.ConfirmPassword:
		errs["confirm_password"] = msgPasswordsDiffer
	}
	return nilIfEmpty(errs)
}

func (r PasswordResetRequest) validateCode() map[string]string {
	errs := make(map[string]string)
	required(errs, "email", r.Email, "Email is required")
	required(errs, "otp", r.OTP, "OTP is required")
	return nilIfEmpty(errs)
}

// Validate checks a post create/update form. The cover image is optional.
func (in PostInput) Validate() map[string]string {
	errs := make(map[string]string)
	if utf8.RuneCountInString(strings.TrimSpace(in.Title)) < minTitleLength {
		errs["title"] = "Title is required"
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Content)) < minContentLength {
		errs["content"] = "Content is required"
	}
	required(errs, "category_id", in.CategoryID, "Category is required")
	return nilIfEmpty(errs)
}

func required(errs map[string]string, field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = msg
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
