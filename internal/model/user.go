package model

import "time"

// Role is the access level stored on a user account and carried in the
// session token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleTourist  Role = "tourist"
	RoleEmployee Role = "employee"
	RoleGuide    Role = "guide"
)

// Roles lists every role a user account may hold.
var Roles = []Role{RoleAdmin, RoleTourist, RoleEmployee, RoleGuide}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents a registered account as stored in the `users` table.
// PasswordHash never leaves the server: it is excluded from JSON.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Name, Surname    – display names; surname is optional.
//	Country          – country of residence.
//	PhoneNumber      – unique login identifier.
//	PasswordHash     – bcrypt hashed password.
//	Role             – one of admin, tourist, employee, guide.
//	CheckedOut       – set once the user has completed a checkout.
//	ProfilePictureID – nullable reference into the images table.
//	ProfilePicture   – joined image row, populated on reads.
type User struct {
	ID               uint64    `json:"id"`                        // users.id
	Name             string    `json:"name"`                      // users.name
	Surname          *string   `json:"surname"`                   // users.surname (nullable)
	Country          string    `json:"country"`                   // users.country
	PhoneNumber      string    `json:"phone_number"`              // users.phone_number
	PasswordHash     string    `json:"-"`                         // users.password_hash
	Role             Role      `json:"role"`                      // users.role
	CheckedOut       bool      `json:"checked_out"`               // users.checked_out
	ProfilePictureID *uint64   `json:"profile_picture_id"`        // users.profile_picture_id (nullable)
	ProfilePicture   *Image    `json:"profile_picture,omitempty"` // joined images row
	CreatedAt        time.Time `json:"created_at"`                // users.created_at
	UpdatedAt        time.Time `json:"updated_at"`                // users.updated_at
}
