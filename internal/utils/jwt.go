package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medicart_back_end/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT signe un jeton HS256. Les jetons sont émis par le service
// d'authentification ; ici il sert aux outils et aux tests.
func GenerateJWT(secret string, id models.Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT vérifie signature et expiration, puis retourne l'identité.
func ParseJWT(secret, tokenString string) (models.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return models.Identity{}, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}

	role := models.Role(claims.Role)
	switch role {
	case models.RoleCustomer, models.RolePharmacy, models.RoleAdmin:
	case "":
		role = models.RoleCustomer
	default:
		return models.Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return models.Identity{UserID: claims.UserID, Email: claims.Email, Role: role}, nil
}
