package api

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestBearerTokenFromStringSuccess(t *testing.T) {
	token, err := bearerTokenFromString("Bearer header.payload.signature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(token) != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", string(token))
	}
}

func TestBearerTokenFromStringEmpty(t *testing.T) {
	if _, err := bearerTokenFromString("   "); err == nil || err.Error() != "missing authorization header" {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestBearerTokenFromStringManyPeriods(t *testing.T) {
	header := "Bearer " + strings.Repeat(".", 1000)
	if _, err := bearerTokenFromString(header); err == nil || err.Error() != "bad auth header" {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
}

func signedTestToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func testAuth(secret []byte) *Auth {
	return &Auth{
		Audience:   "api://aud",
		Issuer:     "https://issuer/",
		TestMode:   true,
		TestSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

func TestPrincipalFromBearerHS256(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedTestToken(t, secret, jwt.MapClaims{
		"sub":   "user-123",
		"roles": []any{"editor", "administrator"},
		"aud":   "api://aud",
		"iss":   "https://issuer/",
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
		"nbf":   time.Now().Add(-time.Minute).Unix(),
		"iat":   time.Now().Add(-time.Minute).Unix(),
	})

	p, err := testAuth(secret).PrincipalFromBearer([]byte(signed))
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if p.UserID != "user-123" {
		t.Fatalf("unexpected user id: %s", p.UserID)
	}
	if !p.HasRole("editor") || !p.HasRole("administrator") {
		t.Fatalf("roles not carried over: %v", p.Roles)
	}
}

func TestPrincipalFromBearerNoRolesClaim(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedTestToken(t, secret, jwt.MapClaims{
		"sub": "user-456",
		"aud": "api://aud",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})

	p, err := testAuth(secret).PrincipalFromBearer([]byte(signed))
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if len(p.Roles) != 0 {
		t.Fatalf("expected no roles, got %v", p.Roles)
	}
}

func TestPrincipalFromAuthHeaderEmptyIsAnonymous(t *testing.T) {
	p, err := testAuth([]byte("test-secret")).PrincipalFromAuthHeader("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Anonymous() {
		t.Fatalf("expected anonymous principal, got %+v", p)
	}
}

func TestPrincipalFromBearerExpired(t *testing.T) {
	secret := []byte("test-secret")
	signed := signedTestToken(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://aud",
		"iss": "https://issuer/",
		"exp": time.Now().Add(-5 * time.Minute).Unix(),
	})

	if _, err := testAuth(secret).PrincipalFromBearer([]byte(signed)); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
