package domain

import "time"

// Resource is the shared shape of API scopes and identity resources.
type Resource struct {
	ID                      string
	Name                    string // Unique per resource kind
	DisplayName             string
	Description             string
	Enabled                 bool
	Required                bool
	Emphasize               bool
	ShowInDiscoveryDocument bool
	UserClaims              []string   // Claim types
	Properties              []Property // Key unique within the resource
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type Property struct {
	Key   string
	Value string
}

type (
	APIScope         = Resource
	IdentityResource = Resource
)
