package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func runAuthJWT(t *testing.T, authz string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := AuthJWT(config.Config{JWTSecret: testSecret})
	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	assert.NoError(t, err)
	return rec, c
}

func TestAuthJWT_ValidTokenSetsUserContext(t *testing.T) {
	now := time.Now()
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "7",
		"role": "CUSTOMER",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})

	rec, c := runAuthJWT(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(CtxUserIDKey))
	assert.Equal(t, "CUSTOMER", c.Get(CtxUserRoleKey))
}

func TestAuthJWT_MissingOrMalformedHeader(t *testing.T) {
	for _, authz := range []string{"", "Basic abc", "Bearer", "Bearer  "} {
		rec, _ := runAuthJWT(t, authz)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, authz)
	}
}

func TestAuthJWT_WrongSecretRejected(t *testing.T) {
	now := time.Now()
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub":  "7",
		"role": "CUSTOMER",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})

	rec, _ := runAuthJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredTokenRejected(t *testing.T) {
	now := time.Now()
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "7",
		"role": "CUSTOMER",
		"iat":  now.Add(-2 * time.Hour).Unix(),
		"exp":  now.Add(-time.Hour).Unix(),
	})

	rec, _ := runAuthJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGuard(t *testing.T) {
	e := echo.New()

	run := func(role interface{}, guard echo.MiddlewareFunc) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(CtxUserRoleKey, role)
		}
		handler := guard(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		_ = handler(c)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("ADMIN", AdminRoleGuard()))
	assert.Equal(t, http.StatusForbidden, run("CUSTOMER", AdminRoleGuard()))
	assert.Equal(t, http.StatusUnauthorized, run(nil, AdminRoleGuard()))
	assert.Equal(t, http.StatusOK, run("SELLER", RoleGuard("SELLER", "ADMIN")))
	assert.Equal(t, http.StatusForbidden, run("CUSTOMER", RoleGuard("SELLER", "ADMIN")))
}
