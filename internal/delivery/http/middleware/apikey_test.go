package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		secret string
		key    string
		want   int
	}{
		{"matching key", "s3cret", "s3cret", http.StatusNoContent},
		{"missing key", "s3cret", "", http.StatusForbidden},
		{"wrong key", "s3cret", "guess", http.StatusForbidden},
		{"prefix of key", "s3cret", "s3c", http.StatusForbidden},
		{"unset secret", "", "", http.StatusForbidden},
		{"unset secret with key", "", "anything", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/workdiary", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()

			APIKey(tt.secret)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Forbidden: Invalid API Key"}`, rec.Body.String())
			}
		})
	}
}
