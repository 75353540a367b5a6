package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/avosk/shelfmark/api/auth"
	"github.com/avosk/shelfmark/http/request"
	"github.com/avosk/shelfmark/http/response"
	"github.com/avosk/shelfmark/log"
	"go.uber.org/zap"
)

type AuthInterceptor struct {
	secret string
}

func NewAuthInterceptor(secret string) *AuthInterceptor {
	return &AuthInterceptor{secret: secret}
}

func (m *AuthInterceptor) AuthenticationInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isUnauthorizedAllowed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		accessToken := getAccessToken(r)
		claims, err := auth.ValidateAccessToken(accessToken, []byte(m.secret))
		if err != nil {
			log.Debug("Failed to authenticate request",
				zap.String("client_ip", request.FindClientIP(r)),
				zap.String("user_agent", r.UserAgent()),
				zap.Error(err),
			)
			response.Unauthorized(w, r)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, request.OwnerContextKey, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getAccessToken(r *http.Request) string {
	// Check the HTTP Authorization header first
	authorizationHeaders := r.Header.Get("Authorization")
	// Check bearer token
	if authorizationHeaders != "" {
		splitToken := strings.Split(authorizationHeaders, "Bearer ")
		if len(splitToken) == 2 {
			return splitToken[1]
		}
	}

	// Check the cookie header
	var accessToken string
	for cookie := range r.Cookies() {
		if r.Cookies()[cookie].Name == auth.AccessTokenCookieName {
			accessToken = r.Cookies()[cookie].Value
		}
	}
	return accessToken
}
