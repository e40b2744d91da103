package domain

import "fmt"

// Role is an ordered capability tier. A higher role can do everything a lower one can.
type Role int

const (
	RoleRegular Role = iota
	RoleCashier
	RoleManager
	RoleSuperuser
)

var roleNames = [...]string{
	RoleRegular:   "regular",
	RoleCashier:   "cashier",
	RoleManager:   "manager",
	RoleSuperuser: "superuser",
}

func (r Role) String() string {
	if r < RoleRegular || r > RoleSuperuser {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// AtLeast reports whether r is min or a higher tier.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return RoleRegular, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID     int
	Utorid string
	Role   Role
}
