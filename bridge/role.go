package bridge

import "strings"

// A Role decides which parts of the platform a user can use.
type Role string

const (
	RoleAthlete Role = "ATHLETE"
	RoleCoach   Role = "COACH"
	RoleSponsor Role = "SPONSOR"
	RoleAdmin   Role = "ADMIN"
	RoleUser    Role = "USER"
)

// ParseRole maps free text to a Role. Unknown or empty input becomes RoleUser.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ATHLETE", "ATHELETE":
		return RoleAthlete
	case "COACH":
		return RoleCoach
	case "SPONSOR":
		return RoleSponsor
	case "ADMIN":
		return RoleAdmin
	default:
		return RoleUser
	}
}

func (r Role) String() string {
	return string(r)
}

// Lower is used for dashboard paths such as /dashboard/athlete.
func (r Role) Lower() string {
	return strings.ToLower(string(r))
}

// CanPost reports whether users with this role may publish posts.
func CanPost(r Role) bool {
	return r == RoleAthlete || r == RoleCoach || r == RoleSponsor
}

// CanLike reports whether actor may like post. Athletes cannot like their own posts.
func CanLike(actor *User, post *Post) bool {
	if actor == nil || post == nil {
		return false
	}
	if post.UserID == actor.ID && actor.Role == RoleAthlete {
		return false
	}
	return true
}

// IsCoachingPair reports whether a and b are one coach and one athlete.
func IsCoachingPair(a, b Role) bool {
	return (a == RoleCoach && b == RoleAthlete) || (a == RoleAthlete && b == RoleCoach)
}
