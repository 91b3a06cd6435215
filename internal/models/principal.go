package models

// Principal is the request-scoped identity resolved from a verified token.
// It is never persisted.
type Principal struct {
	UserID   uint     `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// NewPrincipal builds a principal from the user's current state.
func NewPrincipal(u *User) *Principal {
	return &Principal{
		UserID:   u.ID,
		Username: u.Username,
		Roles:    u.RoleNames(),
	}
}

// HasRole reports whether the principal holds the named role.
func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}
