package entity

import "strings"

// Errors is the list of reasons an identity mutation was refused. Every entry
// is safe to show to the caller.
type Errors []string

func (e Errors) Error() string {
	return "identity: " + strings.Join(e, "; ")
}

// PasswordPolicy returns the violations of pw, or nil.
func PasswordPolicy(pw string) Errors {
	var errs Errors
	if len(pw) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	if len(pw) > 72 {
		errs = append(errs, "password must be at most 72 characters")
	}
	if strings.TrimSpace(pw) == "" {
		errs = append(errs, "password must not be blank")
	}
	return errs
}
