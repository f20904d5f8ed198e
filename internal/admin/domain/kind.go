package domain

import "strings"

// Kind names an entity kind managed and seeded by the admin core.
type Kind string

const (
	KindAPIScopes         Kind = "apiscopes"
	KindIdentityResources Kind = "identityresources"
	KindClients           Kind = "clients"
	KindRoles             Kind = "roles"
	KindRoleClaims        Kind = "roleclaims"
	KindUsers             Kind = "users"
	KindUserClaims        Kind = "userclaims"
	KindUserRoles         Kind = "userroles"
)

// Kinds lists every kind in dependency order: scopes and resources before the
// clients that reference them, owners before their associations.
var Kinds = []Kind{
	KindAPIScopes,
	KindIdentityResources,
	KindClients,
	KindRoles,
	KindRoleClaims,
	KindUsers,
	KindUserClaims,
	KindUserRoles,
}

// ParseKind matches name case-insensitively against the known kinds.
func ParseKind(name string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds {
		if string(k) == want {
			return k, nil
		}
	}
	return "", &ArgumentError{Param: "entityKindName", Reason: "unknown entity kind " + `"` + name + `"`}
}

func (k Kind) String() string { return string(k) }
