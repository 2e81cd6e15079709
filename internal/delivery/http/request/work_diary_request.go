package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/user/workdiary-service/internal/entity"
	"github.com/user/workdiary-service/internal/usecase"
)

// multipartMemory is how much of a multipart body is held in memory before spilling to temp files.
const multipartMemory = 32 << 20

// Form file parts carrying uploaded images.
const (
	ScreenshotPart = "screenshot"
	ThumbnailPart  = "thumbnail"
)

// WorkDiaryRequest is the JSON body of POST /api/workdiary.
type WorkDiaryRequest struct {
	ProjectID           FlexString      `json:"projectID"`
	UserID              FlexString      `json:"userID"`
	TaskID              FlexString      `json:"taskID"`
	ScreenshotTimeStamp FlexString      `json:"screenshotTimeStamp"`
	CalcTimeStamp       FlexString      `json:"calcTimeStamp"`
	KeyboardJSON        json.RawMessage `json:"keyboardJSON"`
	MouseJSON           json.RawMessage `json:"mouseJSON"`
	ActiveJSON          json.RawMessage `json:"activeJSON"`
	ActiveFlag          FlexInt         `json:"activeFlag"`
	ActiveMins          FlexInt         `json:"activeMins"`
	DeletedFlag         FlexInt         `json:"deletedFlag"`
	ActiveMemo          null.String     `json:"activeMemo"`
	ImageURL            string          `json:"imageURL"`     // data:image base64 string or remote URL
	ThumbNailURL        string          `json:"thumbNailURL"` // data:image base64 string or remote URL
}

// ToInput converts the body into use case input. Uploads only exist for multipart bodies.
func (req *WorkDiaryRequest) ToInput() usecase.CreateEntryInput {
	return usecase.CreateEntryInput{
		ProjectID:           string(req.ProjectID),
		UserID:              string(req.UserID),
		TaskID:              string(req.TaskID),
		ScreenshotTimeStamp: string(req.ScreenshotTimeStamp),
		CalcTimeStamp:       string(req.CalcTimeStamp),
		KeyboardJSON:        req.KeyboardJSON,
		MouseJSON:           req.MouseJSON,
		ActiveJSON:          req.ActiveJSON,
		ActiveFlag:          req.ActiveFlag.Int,
		ActiveMins:          req.ActiveMins.Int,
		DeletedFlag:         req.DeletedFlag.Int,
		ActiveMemo:          null.NewString(req.ActiveMemo.String, req.ActiveMemo.String != ""),
		Screenshot:          entity.ImageInput{Value: strings.TrimSpace(req.ImageURL)},
		Thumbnail:           entity.ImageInput{Value: strings.TrimSpace(req.ThumbNailURL)},
	}
}

// DecodeWorkDiary reads a submission sent as JSON, multipart/form-data or a urlencoded form.
func DecodeWorkDiary(r *http.Request) (usecase.CreateEntryInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return usecase.CreateEntryInput{}, err
		}
		defer r.MultipartForm.RemoveAll()
		return decodeForm(r.MultipartForm.Value, r.MultipartForm.File)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return usecase.CreateEntryInput{}, err
		}
		return decodeForm(r.PostForm, nil)
	default:
		var req WorkDiaryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				// empty body: let required-field validation report what is missing
				return req.ToInput(), nil
			}
			return usecase.CreateEntryInput{}, err
		}
		return req.ToInput(), nil
	}
}

func decodeForm(values url.Values, files map[string][]*multipart.FileHeader) (usecase.CreateEntryInput, error) {
	in := usecase.CreateEntryInput{
		ProjectID:           strings.TrimSpace(values.Get("projectID")),
		UserID:              strings.TrimSpace(values.Get("userID")),
		TaskID:              strings.TrimSpace(values.Get("taskID")),
		ScreenshotTimeStamp: strings.TrimSpace(values.Get("screenshotTimeStamp")),
		CalcTimeStamp:       strings.TrimSpace(values.Get("calcTimeStamp")),
		KeyboardJSON:        formJSON(values, "keyboardJSON"),
		MouseJSON:           formJSON(values, "mouseJSON"),
		ActiveJSON:          formJSON(values, "activeJSON"),
		Screenshot:          entity.ImageInput{Value: strings.TrimSpace(values.Get("imageURL"))},
		Thumbnail:           entity.ImageInput{Value: strings.TrimSpace(values.Get("thumbNailURL"))},
	}
	if memo, ok := values["activeMemo"]; ok && len(memo) > 0 && memo[0] != "" {
		in.ActiveMemo = null.StringFrom(memo[0])
	}

	var err error
	if in.ActiveFlag, err = ParseFlexInt(values.Get("activeFlag")); err != nil {
		return in, fmt.Errorf("activeFlag: %w", err)
	}
	if in.ActiveMins, err = ParseFlexInt(values.Get("activeMins")); err != nil {
		return in, fmt.Errorf("activeMins: %w", err)
	}
	if in.DeletedFlag, err = ParseFlexInt(values.Get("deletedFlag")); err != nil {
		return in, fmt.Errorf("deletedFlag: %w", err)
	}

	if in.Screenshot.Upload, err = readPart(files, ScreenshotPart); err != nil {
		return in, err
	}
	if in.Thumbnail.Upload, err = readPart(files, ThumbnailPart); err != nil {
		return in, err
	}
	return in, nil
}

// formJSON wraps form text as a JSON string so it is parsed the same way as a JSON body string.
func formJSON(values url.Values, key string) json.RawMessage {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	raw, _ := json.Marshal(v[0])
	return raw
}

func readPart(files map[string][]*multipart.FileHeader, name string) ([]byte, error) {
	headers := files[name]
	if len(headers) == 0 {
		return nil, nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s upload: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s upload: %w", name, err)
	}
	return data, nil
}
