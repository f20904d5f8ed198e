package domain

import "time"

// User mirrors the identity user record. PasswordHash is argon2id encoded.
type User struct {
	ID                   string
	UserName             string
	Email                string
	EmailConfirmed       bool
	PasswordHash         string
	SecurityStamp        string
	ConcurrencyStamp     string
	PhoneNumber          string
	PhoneNumberConfirmed bool
	TwoFactorEnabled     bool
	LockoutEnabled       bool
	LockoutEnd           *time.Time
	AccessFailedCount    int
	FirstName            string
	LastName             string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
