package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avosk/shelfmark/api/auth"
	"github.com/avosk/shelfmark/config"
	"github.com/avosk/shelfmark/http/response"
	"github.com/avosk/shelfmark/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type signinRequest struct {
	Password    string `json:"password"`
	NeverExpire bool   `json:"never_expire"`
}

type signinResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	if !config.AuthEnabled() {
		response.BadRequest(w, r, errors.New("authentication is not configured"))
		return
	}

	var signin signinRequest
	if err := json.NewDecoder(r.Body).Decode(&signin); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	err := bcrypt.CompareHashAndPassword([]byte(config.Opts.PasswordHash), []byte(signin.Password))
	if err != nil {
		log.Warn("Sign in with invalid password")
		response.Unauthorized(w, r)
		return
	}

	expireTime := time.Now().Add(auth.AccessTokenDuration)
	if signin.NeverExpire {
		// Set the expire time to 100 years.
		expireTime = time.Now().Add(100 * 365 * 24 * time.Hour)
	}

	accessToken, err := auth.GenerateAccessToken("owner", expireTime, []byte(h.secret))
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	cookie := buildAccessTokenCookie(accessToken, expireTime, r.Header.Get("Origin"))
	w.Header().Set("Set-Cookie", cookie)

	response.OK(w, r, signinResponse{AccessToken: accessToken, ExpiresAt: expireTime})
}

func buildAccessTokenCookie(accessToken string, expireTime time.Time, origin string) string {
	attrs := []string{
		fmt.Sprintf("%s=%s", auth.AccessTokenCookieName, accessToken),
		"Path=/",
		"HttpOnly",
	}
	if expireTime.IsZero() {
		attrs = append(attrs, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
	} else {
		attrs = append(attrs, "Expires="+expireTime.Format(time.RFC1123))
	}

	if strings.HasPrefix(origin, "https://") {
		attrs = append(attrs, "Secure")
		attrs = append(attrs, "SameSite=None")
	} else {
		attrs = append(attrs, "SameSite=Lax")
	}
	return strings.Join(attrs, "; ")
}
