package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when signing up with an existing username.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrTokenInvalid is returned for a malformed, tampered or foreign token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the caller information carried by a session token.
type Identity struct {
	UserID   int64      `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
	Office   string     `json:"office"`
}

// IsAdmin reports whether the identity holds the administrator role.
func (id Identity) IsAdmin() bool {
	return id.Role == model.RoleAdmin
}

// IsTechnician reports whether the identity holds the technician role.
func (id Identity) IsTechnician() bool {
	return id.Role == model.RoleTechnician
}

// IdentityOf returns the identity a token issued to u would carry.
func IdentityOf(u *model.User) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		Office:   u.Office,
	}
}

// Claims are the JWT claims of a session token.
type Claims struct {
	UserID int64      `json:"uid"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
	Office string     `json:"office"`
	jwt.RegisteredClaims
}

func (c *Claims) identity() Identity {
	return Identity{
		UserID:   c.UserID,
		Username: c.Subject,
		Name:     c.Name,
		Role:     c.Role,
		Office:   c.Office,
	}
}
