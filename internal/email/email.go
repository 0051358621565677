package email

import (
	"regexp"
	"strings"
)

// Validator accepts addresses on a single institutional domain,
// case-insensitively.
type Validator struct {
	domain string
	re     *regexp.Regexp
}

func NewValidator(domain string) *Validator {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return &Validator{
		domain: domain,
		re:     regexp.MustCompile(`^[a-z0-9._%+-]+@` + regexp.QuoteMeta(domain) + `$`),
	}
}

// Domain returns the accepted domain, e.g. "fizmat.kz".
func (v *Validator) Domain() string {
	return v.domain
}

// Normalize trims surrounding whitespace and lowercases the address.
// Stored emails are always in normalized form.
func (v *Validator) Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Valid reports whether addr, after normalization, is a well-formed
// address on the institutional domain.
func (v *Validator) Valid(addr string) bool {
	addr = v.Normalize(addr)
	if addr == "" {
		return false
	}
	return v.re.MatchString(addr)
}
