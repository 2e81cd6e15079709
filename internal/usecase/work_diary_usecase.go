package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/guregu/null.v3"

	"github.com/user/workdiary-service/internal/entity"
	"github.com/user/workdiary-service/internal/repository"
	"github.com/user/workdiary-service/pkg/metrics"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// CreateEntryInput is a work diary submission after transport decoding.
type CreateEntryInput struct {
	ProjectID           string `json:"projectID" validate:"required"`
	UserID              string `json:"userID" validate:"required"`
	TaskID              string `json:"taskID" validate:"required"`
	ScreenshotTimeStamp string `json:"screenshotTimeStamp" validate:"required"`
	CalcTimeStamp       string `json:"calcTimeStamp" validate:"required"`

	KeyboardJSON json.RawMessage `json:"keyboardJSON"`
	MouseJSON    json.RawMessage `json:"mouseJSON"`
	ActiveJSON   json.RawMessage `json:"activeJSON"`

	ActiveFlag  null.Int    `json:"activeFlag"`
	ActiveMins  null.Int    `json:"activeMins"`
	DeletedFlag null.Int    `json:"deletedFlag"`
	ActiveMemo  null.String `json:"activeMemo"`

	Screenshot entity.ImageInput `json:"-"`
	Thumbnail  entity.ImageInput `json:"-"`
}

// WorkDiaryManager defines the interface for recording and reading work diary entries.
type WorkDiaryManager interface {
	Create(ctx context.Context, in CreateEntryInput) (int64, error)
	ListByUserAndDate(ctx context.Context, userID, date string) ([]entity.WorkDiaryEntry, error)
}

type workDiaryUseCase struct {
	repo   repository.WorkDiaryRepository
	images ImageNormalizer
}

// NewWorkDiaryManager creates a new WorkDiaryManager use case.
func NewWorkDiaryManager(repo repository.WorkDiaryRepository, images ImageNormalizer) WorkDiaryManager {
	return &workDiaryUseCase{
		repo:   repo,
		images: images,
	}
}

// Create validates the submission, stores its images and inserts one row.
// Images stored for a submission whose insert fails are discarded again.
func (uc *workDiaryUseCase) Create(ctx context.Context, in CreateEntryInput) (int64, error) {
	if err := validate.Struct(in); err != nil {
		return 0, requiredFieldsError(err)
	}

	screenshotAt, err := ParseTimestamp(in.ScreenshotTimeStamp)
	if err != nil {
		return 0, validationf(err, "invalid screenshotTimeStamp")
	}
	calcAt, err := ParseTimestamp(in.CalcTimeStamp)
	if err != nil {
		return 0, validationf(err, "invalid calcTimeStamp")
	}

	var stored []string

	imageURL, err := uc.images.Normalize(ctx, entity.SlotScreenshot, in.Screenshot)
	if err != nil {
		return 0, err
	}
	if imageURL.Valid {
		stored = append(stored, imageURL.String)
	}

	thumbNailURL, err := uc.images.Normalize(ctx, entity.SlotThumbnail, in.Thumbnail)
	if err != nil {
		uc.discardImages(ctx, stored)
		return 0, err
	}
	if thumbNailURL.Valid {
		stored = append(stored, thumbNailURL.String)
	}

	entry := &entity.WorkDiaryEntry{
		ProjectID:           in.ProjectID,
		UserID:              in.UserID,
		TaskID:              in.TaskID,
		ScreenshotTimeStamp: screenshotAt,
		CalcTimeStamp:       calcAt,
		KeyboardJSON:        CoerceJSON(in.KeyboardJSON),
		MouseJSON:           CoerceJSON(in.MouseJSON),
		ActiveJSON:          CoerceJSON(in.ActiveJSON),
		ActiveFlag:          in.ActiveFlag,
		ActiveMins:          in.ActiveMins,
		DeletedFlag:         in.DeletedFlag.ValueOrZero(),
		ActiveMemo:          in.ActiveMemo,
		ImageURL:            imageURL,
		ThumbNailURL:        thumbNailURL,
	}

	id, err := uc.repo.Create(ctx, entry)
	if err != nil {
		uc.discardImages(ctx, stored)
		return 0, &StorageError{Op: "Database insert failed", Err: err}
	}

	metrics.EntriesCreatedTotal.Inc()
	slog.Info("Work diary entry stored",
		"id", id,
		"user_id", entry.UserID,
		"project_id", entry.ProjectID,
		"screenshot_ts", FormatTimestamp(entry.ScreenshotTimeStamp),
	)
	return id, nil
}

// ListByUserAndDate returns the user's entries for one calendar day, oldest screenshot first.
func (uc *workDiaryUseCase) ListByUserAndDate(ctx context.Context, userID, date string) ([]entity.WorkDiaryEntry, error) {
	if userID == "" || date == "" {
		return nil, &ValidationError{Message: "Missing userID or date"}
	}
	from, to, err := dayRange(date)
	if err != nil {
		return nil, validationf(err, "date must be in YYYY-MM-DD format")
	}

	entries, err := uc.repo.FindByUserBetween(ctx, userID, from, to)
	if err != nil {
		return nil, &StorageError{Op: "Database fetch failed", Err: err}
	}
	if entries == nil {
		entries = []entity.WorkDiaryEntry{}
	}
	return entries, nil
}

func (uc *workDiaryUseCase) discardImages(ctx context.Context, refs []string) {
	// Cleanup must run even when the request context is already cancelled.
	ctx = context.WithoutCancel(ctx)
	for _, ref := range refs {
		if err := uc.images.Discard(ctx, ref); err != nil {
			slog.Warn("Failed to discard stored image", "ref", ref, "error", err)
		}
	}
}

func requiredFieldsError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationf(err, "invalid submission")
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return &ValidationError{Message: "Missing required fields: " + strings.Join(missing, ", ")}
}
