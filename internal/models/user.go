package models

type UserRole string

const (
	RoleLearner UserRole = "LEARNER"
	RoleAuthor  UserRole = "AUTHOR"
	RoleAdmin   UserRole = "ADMIN"
)

// User is built from the identity provider's token claims; it is not stored.
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
}

// UserSession is what the request layer knows about the caller.
type UserSession struct {
	UserID string
	Role   UserRole

	// LTI launch context
	GradingCallbackRequired bool
	GradeEndpoint           string
	AuthCookie              string
}

func (s UserSession) IsAuthor() bool {
	return s.Role == RoleAuthor || s.Role == RoleAdmin
}
