package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the identity embedded in access tokens.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token plus enough identity for the client
// to route between the admin and teacher areas.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	UserID      string   `json:"user_id"`
	FIO         string   `json:"fio"`
	Role        UserRole `json:"role"`
	FirstStart  bool     `json:"first_start"`
}
