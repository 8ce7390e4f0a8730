package entities

// Identity is the verified subject of a bearer token.
type Identity struct {
	UserID string
	Email  string
	// RoleHint is the role requested at sign-up. It only seeds new profiles.
	RoleHint string
}
