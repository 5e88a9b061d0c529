package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	id := models.Identity{UserID: "u1", Email: "u1@example.com", Role: models.RolePharmacy}
	token, err := GenerateJWT("secret", id, time.Hour)
	require.NoError(t, err)

	got, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseJWTRejects(t *testing.T) {
	id := models.Identity{UserID: "u1", Role: models.RoleCustomer}

	token, _ := GenerateJWT("secret", id, time.Hour)
	_, err := ParseJWT("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _ := GenerateJWT("secret", id, -time.Minute)
	_, err = ParseJWT("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	weird, _ := GenerateJWT("secret", models.Identity{UserID: "u1", Role: "root"}, time.Hour)
	_, err = ParseJWT("secret", weird)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	_, err = ParseJWT("secret", unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWTDefaultsRoleToCustomer(t *testing.T) {
	token, _ := GenerateJWT("secret", models.Identity{UserID: "u1"}, time.Hour)
	got, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, got.Role)
}
