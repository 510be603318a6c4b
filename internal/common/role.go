package common

import "strconv"

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

const (
	AccessLevelBuyer  = 1
	AccessLevelSeller = 2
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// RoleForAccessLevel is the only place a role is derived from an access level.
func RoleForAccessLevel(level int) Role {
	if level >= AccessLevelSeller {
		return RoleSeller
	}
	return RoleBuyer
}

// FormatAccessLevel renders the level the way it is persisted on device ("1", "2").
func FormatAccessLevel(level int) string {
	return strconv.Itoa(level)
}
