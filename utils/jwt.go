package utils

import (
	"errors"
	"fmt"
	"time"

	"snapbook/models"

	"github.com/golang-jwt/jwt"
)

// JWTManager signs and verifies the bearer tokens the three apps present.
type JWTManager struct {
	secret []byte
}

func NewJWTManager(secret string) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("jwt: empty secret")
	}
	return &JWTManager{secret: []byte(secret)}, nil
}

// GenerateToken creates a signed token whose subject is the actor id.
// The token expires after the specified duration.
func (m *JWTManager) GenerateToken(actor models.Actor, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  actor.ID,
		"role": string(actor.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func (m *JWTManager) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
}

// ParseActor extracts the caller identity from a valid token string.
func (m *JWTManager) ParseActor(tokenString string) (models.Actor, error) {
	token, err := m.ValidateToken(tokenString)
	if err != nil {
		return models.Actor{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Actor{}, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Actor{}, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	actor := models.Actor{ID: sub, Role: models.Role(role)}
	if !actor.Role.IsValid() {
		return models.Actor{}, fmt.Errorf("token carries unknown role %q", role)
	}
	return actor, nil
}
