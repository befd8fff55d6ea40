package model

import "time"

// Role is the access role of a user.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTechnician
}

// Authority returns the role in the "ROLE_" form expected by clients.
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// User is an account that can sign in.
type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:16;not null" json:"role"`
	Office       string     `gorm:"size:100" json:"office,omitempty"` // Empty for admins
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
