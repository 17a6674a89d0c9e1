package models

// Profile is the authenticated user's record from GET /users/profile.
type Profile struct {
	ID     string `json:"_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Ref    `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// RoleName returns the populated role name or the bare role id.
func (p Profile) RoleName() string {
	if p.Role.Populated() {
		return p.Role.Name
	}
	return p.Role.ID
}

// TokenPair is returned by login and refresh. RefreshToken is empty when
// the backend did not rotate it; Role is only sent on login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Role         string `json:"role,omitempty"`
	UserID       string `json:"userId,omitempty"`
}
