package model

// User is an authenticated platform account (agent, admin, or the
// well-known system account used for audit attribution).
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles,omitempty"`
}

// Identity returns the user's close/audit attribution reference.
func (u *User) Identity() Identity {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return Identity{ID: u.ID, DisplayName: name}
}

// Visitor is an anonymous website visitor identified by an opaque token.
type Visitor struct {
	ID       string `json:"id"`
	Token    string `json:"token"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Language string `json:"language,omitempty"`
}

// Identity returns the visitor's close/audit attribution reference.
func (v *Visitor) Identity() Identity {
	return Identity{ID: v.ID, DisplayName: v.Name}
}
