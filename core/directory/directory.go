package directory

import (
	"strings"

	"github.com/m3rciful/residentbot/core/phone"
)

// Contact is one directory row. Number keeps the raw spreadsheet value.
type Contact struct {
	Category string
	Name     string
	Number   string
}

// AllowList is the set of canonical numbers allowed to use the bot.
type AllowList map[phone.Number]struct{}

// NewAllowList normalizes raw numbers into a set.
func NewAllowList(raw ...string) AllowList {
	set := make(AllowList, len(raw))
	for _, r := range raw {
		set[phone.Normalize(r)] = struct{}{}
	}
	return set
}

// Contains reports whether n is allowed. n must already be canonical.
func (a AllowList) Contains(n phone.Number) bool {
	_, ok := a[n]
	return ok
}

// Len returns the number of allowed numbers.
func (a AllowList) Len() int { return len(a) }

// Snapshot is the allow-list and contact directory loaded at process start.
// It is never mutated after construction.
type Snapshot struct {
	allowed  AllowList
	contacts []Contact
}

// NewSnapshot copies contacts so later changes by the caller are not observed.
func NewSnapshot(allowed AllowList, contacts []Contact) *Snapshot {
	if allowed == nil {
		allowed = AllowList{}
	}
	return &Snapshot{
		allowed:  allowed,
		contacts: append([]Contact(nil), contacts...),
	}
}

// Allowed reports whether the canonical number n is on the allow-list.
func (s *Snapshot) Allowed(n phone.Number) bool {
	return s.allowed.Contains(n)
}

// AllowedCount returns the allow-list size.
func (s *Snapshot) AllowedCount() int { return s.allowed.Len() }

// ContactCount returns the number of directory entries.
func (s *Snapshot) ContactCount() int { return len(s.contacts) }

// ContactsIn returns entries whose trimmed, lowercased category equals
// category, in load order.
func (s *Snapshot) ContactsIn(category string) []Contact {
	want := strings.ToLower(strings.TrimSpace(category))
	var out []Contact
	for _, c := range s.contacts {
		if strings.ToLower(strings.TrimSpace(c.Category)) == want {
			out = append(out, c)
		}
	}
	return out
}
