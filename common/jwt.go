package common

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/timera-ai/timera-api/common/config"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type TokenClaims struct {
	UserId    int    `json:"user_id"`
	Role      int    `json:"role"`
	TokenType string `json:"token_type"`
	jwt.StandardClaims
}

func generateToken(userId int, role int, tokenType string, lifetime time.Duration) (string, error) {
	claims := TokenClaims{
		UserId:    userId,
		Role:      role,
		TokenType: tokenType,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(lifetime).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JwtSecret))
}

func GenerateAccessToken(userId int, role int) (string, error) {
	return generateToken(userId, role, TokenTypeAccess, time.Duration(config.AccessTokenMinutes)*time.Minute)
}

func GenerateRefreshToken(userId int, role int) (string, error) {
	return generateToken(userId, role, TokenTypeRefresh, time.Duration(config.RefreshTokenHours)*time.Hour)
}

func ParseToken(tokenString string, expectedType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.JwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, errors.New("wrong token type")
	}
	return claims, nil
}
