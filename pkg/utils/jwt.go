package utils

import (
	"time"

	"cakery_api/internal/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken issues a signed JWT for the given user.
func GenerateToken(userID uint, role int) (string, error) {
	cfg := config.GlobalConfig.JWT

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Duration(cfg.Expire) * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken validates a JWT and returns the parsed token.
func ParseToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.GlobalConfig.JWT.Secret), nil
	})
}
