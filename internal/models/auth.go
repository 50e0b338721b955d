package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// MeResponse wraps the current user for GET /auth/me.
type MeResponse struct {
	User UserInfo `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Role        UserRole `json:"role"`
	DisplayName string   `json:"displayName"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID      int64    `json:"id"`
	Username    string   `json:"username"`
	Role        UserRole `json:"role"`
	DisplayName string   `json:"displayName"`
	jwt.RegisteredClaims
}

// Info returns the user described by the claims.
func (c *JWTClaims) Info() UserInfo {
	return UserInfo{ID: c.UserID, Username: c.Username, Role: c.Role, DisplayName: c.DisplayName}
}
