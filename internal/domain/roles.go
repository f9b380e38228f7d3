package domain

// Built-in role names, ordered least to most privileged. The slice index is
// the rank used by HighestRole; names outside the hierarchy rank as -1.
const (
	RoleViewer    = "viewer"
	RoleModerator = "moderator"
	RoleProducer  = "producer"
	RoleAdmin     = "admin"
)

var roleHierarchy = []string{RoleViewer, RoleModerator, RoleProducer, RoleAdmin}

func RoleRank(name string) int {
	for i, r := range roleHierarchy {
		if r == name {
			return i
		}
	}
	return -1
}

// HighestRole returns the highest-ranked built-in role in names, or "" when
// none of them is ranked.
func HighestRole(names []string) string {
	best := -1
	highest := ""
	for _, name := range names {
		if rank := RoleRank(name); rank > best {
			best = rank
			highest = name
		}
	}
	return highest
}

type Role struct {
	ID   string
	Name string
}

type RoleAssignment struct {
	UserID   string
	RoleName string
	TenantID string
}

// ServiceKind is the closed enumeration of client services that drive the
// default role granted at signup. Unknown service strings parse to
// ServiceViewer so an unrecognized client never gains privileges.
type ServiceKind int

const (
	ServiceViewer ServiceKind = iota
	ServiceProducer
	ServiceAdmin
)

func ParseServiceKind(value string) ServiceKind {
	switch value {
	case "producer", "studio":
		return ServiceProducer
	case "admin":
		return ServiceAdmin
	default:
		return ServiceViewer
	}
}

// DefaultRole maps a service to the role granted on first signup.
func (s ServiceKind) DefaultRole() string {
	switch s {
	case ServiceProducer:
		return RoleProducer
	case ServiceAdmin:
		return RoleAdmin
	default:
		return RoleViewer
	}
}

func (s ServiceKind) String() string {
	switch s {
	case ServiceProducer:
		return "producer"
	case ServiceAdmin:
		return "admin"
	default:
		return "viewer"
	}
}
