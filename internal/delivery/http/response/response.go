package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"gopkg.in/guregu/null.v3"

	"github.com/user/workdiary-service/internal/entity"
)

type CreateEntryResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WorkDiaryEntryResponse is a DTO for one workDiary row, mirroring entity.WorkDiaryEntry.
type WorkDiaryEntryResponse struct {
	ID                  int64           `json:"id"`
	ProjectID           string          `json:"projectID"`
	UserID              string          `json:"userID"`
	TaskID              string          `json:"taskID"`
	ScreenshotTimeStamp string          `json:"screenshotTimeStamp"`
	CalcTimeStamp       string          `json:"calcTimeStamp"`
	KeyboardJSON        json.RawMessage `json:"keyboardJSON"`
	MouseJSON           json.RawMessage `json:"mouseJSON"`
	ActiveJSON          json.RawMessage `json:"activeJSON"`
	ActiveFlag          null.Int        `json:"activeFlag"`
	ActiveMins          null.Int        `json:"activeMins"`
	DeletedFlag         int64           `json:"deletedFlag"`
	ActiveMemo          null.String     `json:"activeMemo"`
	ImageURL            null.String     `json:"imageURL"`
	ThumbNailURL        null.String     `json:"thumbNailURL"`
}

func NewWorkDiaryEntryResponse(e entity.WorkDiaryEntry) WorkDiaryEntryResponse {
	return WorkDiaryEntryResponse{
		ID:                  e.ID,
		ProjectID:           e.ProjectID,
		UserID:              e.UserID,
		TaskID:              e.TaskID,
		ScreenshotTimeStamp: e.ScreenshotTimeStamp.Format(entity.TimestampLayout),
		CalcTimeStamp:       e.CalcTimeStamp.Format(entity.TimestampLayout),
		KeyboardJSON:        rawJSON(e.KeyboardJSON),
		MouseJSON:           rawJSON(e.MouseJSON),
		ActiveJSON:          rawJSON(e.ActiveJSON),
		ActiveFlag:          e.ActiveFlag,
		ActiveMins:          e.ActiveMins,
		DeletedFlag:         e.DeletedFlag,
		ActiveMemo:          e.ActiveMemo,
		ImageURL:            e.ImageURL,
		ThumbNailURL:        e.ThumbNailURL,
	}
}

func NewWorkDiaryEntryListResponse(entries []entity.WorkDiaryEntry) []WorkDiaryEntryResponse {
	out := make([]WorkDiaryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewWorkDiaryEntryResponse(e))
	}
	return out
}

// rawJSON emits a stored JSON column as JSON rather than as a quoted string.
func rawJSON(s null.String) json.RawMessage {
	if !s.Valid || !json.Valid([]byte(s.String)) {
		return nil
	}
	return json.RawMessage(s.String)
}

// WriteJSON writes data with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// WriteError writes an {error, details} body.
func WriteError(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Details: details})
}
