package phone

import "strings"

// Number is a phone number in canonical display form, e.g. "+91 98765 43210".
type Number string

const (
	// CountryCode is the dialling code every allow-listed number belongs to.
	CountryCode = "91"
	// Prefix is prepended to canonical numbers.
	Prefix = "+" + CountryCode

	subscriberDigits = 10
	groupSize        = 5
)

// Normalize maps raw input to the canonical form.
// Numbers that match none of the known shapes are returned as their bare
// digits so callers can still log them; they never match the allow-list.
func Normalize(raw string) Number {
	digits := Digits(raw)
	switch {
	case len(digits) == subscriberDigits:
		return format(digits)
	case len(digits) == len(CountryCode)+subscriberDigits && strings.HasPrefix(digits, CountryCode):
		return format(digits[len(CountryCode):])
	}
	return Number(digits)
}

// Canonical reports whether raw already normalizes into the canonical form.
func Canonical(raw string) bool {
	n := Normalize(raw)
	return strings.HasPrefix(string(n), Prefix+" ")
}

// Equal reports whether a and b share a canonical form.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func format(local string) Number {
	return Number(Prefix + " " + local[:groupSize] + " " + local[groupSize:])
}

// String implements fmt.Stringer.
func (n Number) String() string { return string(n) }
