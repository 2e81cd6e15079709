package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/workdiary-service/internal/adapter/httpfetch"
	"github.com/user/workdiary-service/internal/adapter/imagestore"
	"github.com/user/workdiary-service/internal/adapter/sqlite"
	"github.com/user/workdiary-service/internal/delivery/http/handler"
	"github.com/user/workdiary-service/internal/delivery/http/middleware"
	"github.com/user/workdiary-service/internal/usecase"
	"github.com/user/workdiary-service/pkg/metrics"
)

const testKey = "secret-key"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

type testEnv struct {
	router   http.Handler
	imageDir string
	images   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	repo := sqlite.NewWorkDiaryRepo(db)

	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shot.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	t.Cleanup(images.Close)

	imageDir := filepath.Join(t.TempDir(), "images")
	normalizer := usecase.NewImageNormalizer(
		imagestore.NewFileStore(imageDir),
		httpfetch.NewFetcher(images.Client(), 1<<20),
		nil, 0,
	)
	h := handler.NewHandler(usecase.NewWorkDiaryManager(repo, normalizer), 1<<20,
		handler.HealthCheck{Name: "database", Ping: repo.Ping},
	)

	return &testEnv{
		router:   New(h, Options{APIKey: testKey, ImageDir: imageDir}),
		imageDir: imageDir,
		images:   images,
	}
}

func (e *testEnv) do(t *testing.T, method, target, key string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func entryBody(userID, screenshotAt string) map[string]any {
	return map[string]any{
		"projectID":           "p1",
		"userID":              userID,
		"taskID":              "t1",
		"screenshotTimeStamp": screenshotAt,
		"calcTimeStamp":       screenshotAt,
		"keyboardJSON":        map[string]any{"keys": 4},
	}
}

func TestAPIKeyGate(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name, method, target, key string
	}{
		{"post without key", http.MethodPost, "/api/workdiary", ""},
		{"post with wrong key", http.MethodPost, "/api/workdiary", "nope"},
		{"get without key", http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-01", ""},
		{"get with wrong key", http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-01", "nope"},
		{"root without key", http.MethodGet, "/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, tt.key, entryBody("u1", "2024-01-01T08:00:00Z"))
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.JSONEq(t, `{"error":"Forbidden: Invalid API Key"}`, rec.Body.String())
		})
	}

	// nothing was written by the rejected POSTs
	rec := env.do(t, http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-01", testKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", testKey, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Employee Monitoring API is running", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"healthy"}`, rec.Body.String())
}

func TestCreateEntry_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	body := entryBody("u1", "2024-01-01T08:00:00Z")
	delete(body, "projectID")
	rec := env.do(t, http.MethodPost, "/api/workdiary", testKey, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "projectID")
}

func TestCreateEntry_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/workdiary", strings.NewReader(`{"projectID":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.APIKeyHeader, testKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateThenListByDay(t *testing.T) {
	env := newTestEnv(t)

	for _, ts := range []string{"2024-01-01T09:00:00.000Z", "2024-01-01T08:00:00.000Z", "2024-01-02T08:00:00.000Z"} {
		rec := env.do(t, http.MethodPost, "/api/workdiary", testKey, entryBody("u1", ts))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var created struct {
			Message string `json:"message"`
			ID      int64  `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "Data inserted with image URLs", created.Message)
		assert.Positive(t, created.ID)
	}

	rec := env.do(t, http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-01", testKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-01-01 08:00:00", entries[0]["screenshotTimeStamp"])
	assert.Equal(t, "2024-01-01 09:00:00", entries[1]["screenshotTimeStamp"])
	assert.Equal(t, map[string]any{"keys": float64(4)}, entries[0]["keyboardJSON"])
	assert.Nil(t, entries[0]["imageURL"])

	rec = env.do(t, http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-02", testKey, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	rec = env.do(t, http.MethodGet, "/api/workdiary?userID=u2&date=2024-01-01", testKey, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListEntries_BadQuery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/workdiary?userID=u1", testKey, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing userID or date")
}

func TestCreateEntry_RemoteImageIsStoredAndServed(t *testing.T) {
	env := newTestEnv(t)

	body := entryBody("u1", "2024-01-01T08:00:00Z")
	body["imageURL"] = env.images.URL + "/shot.png"
	rec := env.do(t, http.MethodPost, "/api/workdiary", testKey, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-01", testKey, nil)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	ref, ok := entries[0]["imageURL"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(ref, imagestore.PublicPrefix+"/"))

	stored, err := os.ReadFile(filepath.Join(env.imageDir, strings.TrimPrefix(ref, imagestore.PublicPrefix+"/")))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	rec = env.do(t, http.MethodGet, ref, testKey, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())
}

func TestCreateEntry_UnreachableImage(t *testing.T) {
	env := newTestEnv(t)

	body := entryBody("u1", "2024-01-01T08:00:00Z")
	body["thumbNailURL"] = env.images.URL + "/missing.png"
	rec := env.do(t, http.MethodPost, "/api/workdiary", testKey, body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Failed to fetch image from URL"`)

	rec = env.do(t, http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-01", testKey, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateEntry_DriveLinkWithoutFileID(t *testing.T) {
	env := newTestEnv(t)

	body := entryBody("u1", "2024-01-01T08:00:00Z")
	body["imageURL"] = "https://drive.google.com/drive/my-drive"
	rec := env.do(t, http.MethodPost, "/api/workdiary", testKey, body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Failed to fetch image from URL"`)
}

func TestCreateEntry_Base64PayloadIsStoredAsIs(t *testing.T) {
	env := newTestEnv(t)

	body := entryBody("u1", "2024-01-01T08:00:00Z")
	body["imageURL"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))
	rec := env.do(t, http.MethodPost, "/api/workdiary", testKey, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/workdiary?userID=u1&date=2024-01-01", testKey, nil)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	ref, ok := entries[0]["imageURL"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	stored, err := os.ReadFile(filepath.Join(env.imageDir, strings.TrimPrefix(ref, imagestore.PublicPrefix+"/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), stored)
}
