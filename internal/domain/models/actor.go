package models

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsVolunteer reports whether the actor holds the volunteer role.
func (a Actor) IsVolunteer() bool { return a.Role == RoleVolunteer }
