package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the authenticated identity inside access tokens.
type JWTClaims struct {
	UserID      string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}
