package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/user/workdiary-service/internal/delivery/http/request"
	"github.com/user/workdiary-service/internal/delivery/http/response"
	"github.com/user/workdiary-service/internal/usecase"
)

const (
	createdMessage     = "Data inserted with image URLs"
	fetchFailedMessage = "Failed to fetch image from URL"
)

// HealthCheck is one dependency probed by the health endpoint.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	workDiary    usecase.WorkDiaryManager
	maxBodyBytes int64
	checks       []HealthCheck
}

func NewHandler(workDiary usecase.WorkDiaryManager, maxBodyBytes int64, checks ...HealthCheck) *Handler {
	return &Handler{
		workDiary:    workDiary,
		maxBodyBytes: maxBodyBytes,
		checks:       checks,
	}
}

func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Employee Monitoring API is running"))
}

func (h *Handler) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	in, err := request.DecodeWorkDiary(r)
	if err != nil {
		h.writeJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	id, err := h.workDiary.Create(r.Context(), in)
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.CreateEntryResponse{
		Message: createdMessage,
		ID:      id,
	})
}

func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := strings.TrimSpace(query.Get("userID"))
	date := strings.TrimSpace(query.Get("date"))

	entries, err := h.workDiary.ListByUserAndDate(r.Context(), userID, date)
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewWorkDiaryEntryListResponse(entries))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"status": "ok"}
	healthy := true
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			healthStatus[check.Name] = "unhealthy"
			healthy = false
			slog.Error("Health check failed", "dependency", check.Name, "error", err)
			continue
		}
		healthStatus[check.Name] = "healthy"
	}

	if !healthy {
		healthStatus["status"] = "degraded"
		h.writeJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	h.writeJSON(w, http.StatusOK, healthStatus)
}

// writeUseCaseError maps the use case error taxonomy onto HTTP status codes.
func (h *Handler) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *usecase.ValidationError
		fetchErr      *usecase.ImageFetchError
		storageErr    *usecase.StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		details := ""
		if validationErr.Err != nil {
			details = validationErr.Err.Error()
		}
		h.writeJSONError(w, http.StatusBadRequest, validationErr.Message, details)
	case errors.As(err, &fetchErr):
		slog.Error("Image fetch failed", "path", r.URL.Path, "url", fetchErr.URL, "error", fetchErr.Err)
		h.writeJSONError(w, http.StatusInternalServerError, fetchFailedMessage, fetchErr.Err.Error())
	case errors.As(err, &storageErr):
		slog.Error("Storage failure", "path", r.URL.Path, "op", storageErr.Op, "error", storageErr.Err)
		h.writeJSONError(w, http.StatusInternalServerError, storageErr.Op, storageErr.Err.Error())
	default:
		slog.Error("Unhandled error", "path", r.URL.Path, "error", err)
		h.writeJSONError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	response.WriteJSON(w, status, data)
}

func (h *Handler) writeJSONError(w http.ResponseWriter, status int, message, details string) {
	response.WriteError(w, status, message, details)
}
