// Package password implements the password policy, the bcrypt hasher and
// temporary password generation.
package password

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SpecialChars is the set of characters that satisfy the special-character
// rule.
const SpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// commonPrefixes are rejected case-insensitively at the start of a password.
var commonPrefixes = []string{"123", "abc", "qwerty", "password", "letmein"}

// Policy holds the password complexity rules.
type Policy struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// DefaultPolicy returns the marketplace password rules.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:        8,
		MaxLength:        128,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}
}

// Result is the outcome of Validate. Errors lists every violated rule.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Error joins the violations into one message.
func (r Result) Error() string {
	return strings.Join(r.Errors, ", ")
}

// Validate checks password against every rule and reports all violations
// in a fixed order.
func (p Policy) Validate(password string) Result {
	if password == "" {
		return Result{Valid: false, Errors: []string{"Password is required"}}
	}

	errs := make([]string, 0, 4)
	n := utf8.RuneCountInString(password)
	if n < p.MinLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters", p.MinLength))
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		errs = append(errs, fmt.Sprintf("Password must be at most %d characters", p.MaxLength))
	}

	var upper, lower, digit, special bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(SpecialChars, c):
			special = true
		}
	}
	if p.RequireUppercase && !upper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !lower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if p.RequireNumber && !digit {
		errs = append(errs, "Password must contain at least one number")
	}
	if p.RequireSpecial && !special {
		errs = append(errs, fmt.Sprintf("Password must contain at least one special character (%s)", SpecialChars))
	}

	if n > 1 && allSame(password) {
		errs = append(errs, "Password cannot be all the same character")
	}

	lowered := strings.ToLower(password)
	for _, prefix := range commonPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			errs = append(errs, "Password is too common")
			break
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func allSame(s string) bool {
	first, _ := utf8.DecodeRuneInString(s)
	for _, c := range s {
		if c != first {
			return false
		}
	}
	return true
}

// Requirements describes the policy to clients.
type Requirements struct {
	MinLength        int    `json:"min_length"`
	MaxLength        int    `json:"max_length"`
	RequireUppercase bool   `json:"require_uppercase"`
	RequireLowercase bool   `json:"require_lowercase"`
	RequireNumber    bool   `json:"require_number"`
	RequireSpecial   bool   `json:"require_special"`
	SpecialChars     string `json:"special_chars"`
}

// Requirements returns the public description of p.
func (p Policy) Requirements() Requirements {
	return Requirements{
		MinLength:        p.MinLength,
		MaxLength:        p.MaxLength,
		RequireUppercase: p.RequireUppercase,
		RequireLowercase: p.RequireLowercase,
		RequireNumber:    p.RequireNumber,
		RequireSpecial:   p.RequireSpecial,
		SpecialChars:     SpecialChars,
	}
}
