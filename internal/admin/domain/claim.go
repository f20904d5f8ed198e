package domain

// Claim is a type/value pair. Two claims are equal when both fields match.
type Claim struct {
	Type  string
	Value string
}

type RoleClaim struct {
	ID     string
	RoleID string
	Claim
}

type UserClaim struct {
	ID     string
	UserID string
	Claim
}

// UserRole links a user to a role, keyed by (UserID, RoleID).
type UserRole struct {
	UserID string
	RoleID string
}
