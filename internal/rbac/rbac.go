package rbac

type Role string
type Visibility string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

// Visibility levels in ascending order of required privilege.
const (
	VisibilityEveryone        Visibility = "EVERYONE"
	VisibilityManagerAndAbove Visibility = "MANAGER_AND_ABOVE"
	VisibilityAdmin           Visibility = "ADMIN"
)

var Visibilities = []Visibility{VisibilityEveryone, VisibilityManagerAndAbove, VisibilityAdmin}

// VisibleLevels returns the record visibility levels a team role may read.
// Unknown or empty roles fall back to EVERYONE.
func VisibleLevels(role Role) []Visibility {
	switch role {
	case RoleAdmin:
		return []Visibility{VisibilityEveryone, VisibilityManagerAndAbove, VisibilityAdmin}
	case RoleManager:
		return []Visibility{VisibilityEveryone, VisibilityManagerAndAbove}
	default:
		return []Visibility{VisibilityEveryone}
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleManager, RoleMember:
		return Role(role)
	default:
		return RoleMember
	}
}

func ValidVisibility(v string) bool {
	switch Visibility(v) {
	case VisibilityEveryone, VisibilityManagerAndAbove, VisibilityAdmin:
		return true
	default:
		return false
	}
}
