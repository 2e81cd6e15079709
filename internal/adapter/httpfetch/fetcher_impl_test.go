package httpfetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/workdiary-service/internal/repository"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

const confirmPage = `<!DOCTYPE html><html><head><title>Google Drive - Virus scan warning</title></head>
<body><form id="download-form" action="/download" method="get">
<input type="submit" value="Download anyway"/>
<input type="hidden" name="id" value="ABC123">
<input type="hidden" name="export" value="download">
<input type="hidden" name="confirm" value="t">
</form></body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/shot.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	})
	mux.HandleFunc("/uc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, confirmPage)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") != "t" || r.URL.Query().Get("id") != "ABC123" {
			http.Error(w, "missing confirm", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngBytes)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>Sign in</body></html>")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_DirectImage(t *testing.T) {
	srv := newTestServer(t)
	f := NewFetcher(srv.Client(), 1<<20)

	data, err := f.Fetch(context.Background(), srv.URL+"/shot.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestFetch_FollowsDriveConfirmForm(t *testing.T) {
	srv := newTestServer(t)
	f := NewFetcher(srv.Client(), 1<<20)

	data, err := f.Fetch(context.Background(), srv.URL+"/uc?export=download&id=ABC123")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestFetch_HTMLWithoutFormIsNotAnImage(t *testing.T) {
	srv := newTestServer(t)
	f := NewFetcher(srv.Client(), 1<<20)

	_, err := f.Fetch(context.Background(), srv.URL+"/login")
	assert.ErrorIs(t, err, repository.ErrFetchNotAnImage)
}

func TestFetch_BadStatus(t *testing.T) {
	srv := newTestServer(t)
	f := NewFetcher(srv.Client(), 1<<20)

	_, err := f.Fetch(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, repository.ErrFetchBadStatus)
}

func TestFetch_TooLarge(t *testing.T) {
	srv := newTestServer(t)
	f := NewFetcher(srv.Client(), 8)

	_, err := f.Fetch(context.Background(), srv.URL+"/shot.png")
	assert.ErrorIs(t, err, repository.ErrFetchTooLarge)
}

func TestFetch_NetworkError(t *testing.T) {
	srv := newTestServer(t)
	addr := srv.URL
	srv.Close()

	f := NewFetcher(http.DefaultClient, 1<<20)
	_, err := f.Fetch(context.Background(), addr+"/shot.png")
	assert.ErrorIs(t, err, repository.ErrFetchFailed)
}
