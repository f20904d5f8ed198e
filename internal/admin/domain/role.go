package domain

import (
	"strings"
	"time"
)

type Role struct {
	ID               string
	Name             string
	Description      string
	ConcurrencyStamp string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NormalizeName upper-cases a user name, role name or email for lookups.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
