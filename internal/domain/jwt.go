package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Staff roles allowed on the back-office API
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// StaffClaims represents the JWT claims issued to front-desk staff
type StaffClaims struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}
