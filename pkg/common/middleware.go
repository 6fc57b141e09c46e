package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims bind a token to the wallet identity it proves control of.
type IdentityClaims struct {
	WalletID string `json:"wallet_id"`
	jwt.RegisteredClaims
}

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware verifies the bearer token and injects the claims into the
// request context. Handlers read the caller's wallet via CallerWallet.
func AuthMiddleware(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)

		claims := &IdentityClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})

		if err != nil || !token.Valid || claims.WalletID == "" {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerWallet returns the wallet identity the request's token was bound to.
func CallerWallet(r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(claimsKey).(*IdentityClaims)
	if !ok {
		return "", false
	}
	return claims.WalletID, true
}
