package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, wallet string, expiresAt time.Time) string {
	t.Helper()
	claims := &IdentityClaims{
		WalletID: wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareInjectsCaller(t *testing.T) {
	var gotWallet string
	handler := AuthMiddleware(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := CallerWallet(r)
		require.True(t, ok)
		gotWallet = wallet
	}))

	req := httptest.NewRequest("POST", "/issue", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "issuer-wallet", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "issuer-wallet", gotWallet)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	handler := AuthMiddleware(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	// Missing header
	req := httptest.NewRequest("POST", "/issue", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	req = httptest.NewRequest("POST", "/issue", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key
	req = httptest.NewRequest("POST", "/issue", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("other-secret"), "issuer-wallet", time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired
	req = httptest.NewRequest("POST", "/issue", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "issuer-wallet", time.Now().Add(-time.Hour)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token without a wallet identity
	req = httptest.NewRequest("POST", "/issue", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "", time.Now().Add(time.Hour)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallerWalletOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	_, ok := CallerWallet(req)
	require.False(t, ok)
}
