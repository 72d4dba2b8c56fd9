package models

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleGP     Role = "gp"
	RoleAdmin  Role = "admin"
)

// ParseRole maps raw input to a known role. Unknown values are rejected so
// every role check downstream can switch exhaustively over the three constants.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleClient:
		return RoleClient, true
	case RoleGP:
		return RoleGP, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	City         *string   `json:"city,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
