package domain

import "fmt"

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Roles lists every role a room hands out an invite for, in issue order.
var Roles = []Role{RoleHost, RoleGuest}

func (r Role) Valid() bool {
	return r == RoleHost || r == RoleGuest
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored or claimed role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("domain: unknown role %q", s)
	}
	return r, nil
}
