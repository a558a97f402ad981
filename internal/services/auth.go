package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 24 * time.Hour

// AuthService authenticates the single configured administrator.
type AuthService struct {
	adminUsername     string
	adminPasswordHash []byte
	jwtSecret         []byte
	now               func() time.Time
}

func NewAuthService(adminUsername, adminPasswordHash, jwtSecret string) *AuthService {
	return &AuthService{
		adminUsername:     adminUsername,
		adminPasswordHash: []byte(adminPasswordHash),
		jwtSecret:         []byte(jwtSecret),
		now:               time.Now,
	}
}

func (s *AuthService) Login(username, password string) (string, error) {
	if s.adminUsername == "" || len(s.adminPasswordHash) == 0 || username != s.adminUsername {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.GenerateToken(username)
}

func (s *AuthService) GenerateToken(username string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   username,
		"admin": true,
		"exp":   now.Add(tokenTTL).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken returns the username of a valid admin token.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	if admin, _ := claims["admin"].(bool); !admin {
		return "", errors.New("token is not an admin token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("invalid sub in token")
	}

	return sub, nil
}
