package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type CustomClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

var jwtKey []byte

// Init installs the signing secret. Must be called once before any token is
// generated or validated.
func Init(secret string) {
	if secret == "" {
		log.Printf("[AUTH] WARNING: empty JWT secret installed!")
	}
	jwtKey = []byte(secret)
}

func GenerateToken(userId uuid.UUID) (string, error) {
	expiresAt := time.Now().Add(24 * time.Hour)

	claims := &CustomClaims{
		UserID: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "ChatHub",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		log.Printf("[AUTH] ERROR: Failed to sign token for user %s: %v", userId, err)
		return "", err
	}

	return tokenString, nil
}

func ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			errDetail := fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			log.Printf("[AUTH] VALIDATION FAILED: %v", errDetail)
			return nil, errDetail
		}
		return jwtKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
