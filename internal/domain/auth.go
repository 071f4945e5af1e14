package domain

type AuthPayload struct {
	UserID     string   `json:"user_id"`
	Username   string   `json:"username"`
	Role       Role     `json:"role"`
	Permission []string `json:"permission"`
}

// Viewer is the identity a request is served for.
type Viewer struct {
	UserID string
	Role   Role
}

func (p AuthPayload) Viewer() Viewer {
	return Viewer{UserID: p.UserID, Role: p.Role}
}

type SignupRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *Users `json:"user"`
}

const (
	PermissionSubmit     = "autograder.submit"
	PermissionManageLabs = "autograder.labs.manage"
)

// PermissionsFor lists the token permissions granted to a role.
func PermissionsFor(role Role) []string {
	if role.CanManageLabs() {
		return []string{PermissionSubmit, PermissionManageLabs}
	}
	return []string{PermissionSubmit}
}
