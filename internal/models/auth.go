package models

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims carried by API callers
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// User returns the caller described by the claims
func (c *Claims) User() User {
	return User{
		ID:    c.UserID,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
}
