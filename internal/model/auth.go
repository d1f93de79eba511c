package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims are JWT claims for player tokens
type PlayerClaims struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// RegisterRequest is the request body for player registration
type RegisterRequest struct {
	Name string `json:"name"`
}

// RegisterResponse is returned after successful registration
type RegisterResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
}
