package testutil

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignTestToken mints an HS256 token the verifier accepts: numeric user ID
// in the subject, role as a custom claim.
func SignTestToken(t *testing.T, secret, issuer, audience string, userID uint, role string) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":  issuer,
		"aud":  audience,
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

// SignExpiredTestToken mints a token whose expiry is already in the past.
func SignExpiredTestToken(t *testing.T, secret, issuer, audience string, userID uint, role string) string {
	t.Helper()

	past := time.Now().Add(-2 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":  issuer,
		"aud":  audience,
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"iat":  past.Unix(),
		"exp":  past.Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign expired test token: %v", err)
	}
	return signed
}
