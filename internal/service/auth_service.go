package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"mathduel/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNameRequired = errors.New("player name is required")
)

// AuthService issues and validates player tokens. The engine itself
// never authenticates; it only sees the player ID these tokens carry.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super-secret-key-change-in-production"
	}

	return &AuthService{
		jwtSecret: []byte(secret),
	}
}

// Register allocates a player ID and returns a signed token for it
func (s *AuthService) Register(name string) (*model.RegisterResponse, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	playerID := "p_" + uuid.New().String()[:8]

	claims := &model.PlayerClaims{
		PlayerID: playerID,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.RegisterResponse{
		Token:    tokenString,
		PlayerID: playerID,
	}, nil
}

// ValidatePlayerToken parses and validates a player JWT
func (s *AuthService) ValidatePlayerToken(tokenString string) (*model.PlayerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.PlayerClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.PlayerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
