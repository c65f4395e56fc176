// Package status maps backend appointment status synonyms onto the canonical
// set the portal displays.
package status

import "strings"

// Canonical appointment statuses.
const (
	Pending   = "PENDING"
	Accepted  = "ACCEPTED"
	Declined  = "DECLINED"
	Cancelled = "CANCELLED"
	Completed = "COMPLETED"
)

var synonyms = map[string]string{
	"CONFIRMED":    Accepted,
	"CONFIRMED_V2": Accepted,
	"REJECTED":     Declined,
	"CANCELLED":    Declined,
	"CANCELED":     Declined,
	"DECLINED":     Declined,
}

// Normalize returns the canonical status for raw. Unrecognized values are
// returned uppercased and otherwise unchanged.
func Normalize(raw string) string {
	up := strings.ToUpper(raw)
	if canon, ok := synonyms[up]; ok {
		return canon
	}
	return up
}

// IsCanonical reports whether s is one of the statuses Normalize produces
// for known inputs.
func IsCanonical(s string) bool {
	switch s {
	case Pending, Accepted, Declined, Completed:
		return true
	}
	return false
}
