package access

type Role string
type Action string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

const (
	ActionRead     Action = "read"
	ActionComment  Action = "comment"
	ActionReact    Action = "react"
	ActionShoutout Action = "shoutout"
	ActionModerate Action = "moderate"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleEmployee:
		return action == ActionRead || action == ActionComment || action == ActionReact || action == ActionShoutout
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleEmployee, RoleAdmin:
		return Role(role)
	default:
		return RoleEmployee
	}
}

// Valid reports whether the role is one of the registration allow-list values.
func Valid(role string) bool {
	return role == string(RoleEmployee) || role == string(RoleAdmin)
}
