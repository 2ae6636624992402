package auth

import "regexp"

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

type PasswordCheck struct {
	Valid  bool
	Errors []string
}

// ValidatePassword applies every policy rule independently and reports all
// violations in rule order.
func ValidatePassword(password string) PasswordCheck {
	var violations []string

	if len(password) < 8 {
		violations = append(violations, "password must be at least 8 characters long")
	}
	if !upperRe.MatchString(password) {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if !lowerRe.MatchString(password) {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if !digitRe.MatchString(password) {
		violations = append(violations, "password must contain at least one digit")
	}
	if !specialRe.MatchString(password) {
		violations = append(violations, "password must contain at least one special character")
	}

	return PasswordCheck{Valid: len(violations) == 0, Errors: violations}
}
