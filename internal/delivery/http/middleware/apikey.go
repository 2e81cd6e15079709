package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/workdiary-service/internal/delivery/http/response"
)

// APIKeyHeader carries the shared secret on every gated request.
const APIKeyHeader = "x-api-key"

var ErrInvalidAPIKey = errors.New("invalid api key")

// APIKey rejects requests whose x-api-key header does not match secret with 403.
// An empty secret rejects everything.
func APIKey(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := checkAPIKey(secret, r.Header.Get(APIKeyHeader)); err != nil {
				slog.Warn("Rejected request", "path", r.URL.Path, "remote_addr", r.RemoteAddr, "error", err)
				response.WriteError(w, http.StatusForbidden, "Forbidden: Invalid API Key", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkAPIKey(secret, clientKey string) error {
	if secret == "" || clientKey == "" {
		return ErrInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(clientKey)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}
