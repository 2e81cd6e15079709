package sqlite

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"
	_ "modernc.org/sqlite"

	"github.com/user/workdiary-service/internal/entity"
)

//go:embed schema.sql
var schema string

// Open opens the SQLite database at path. Use ":memory:" for a throwaway database.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database %s: %w", path, err)
	}
	// single connection: writes are serialized and ":memory:" stays one database
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the workDiary table and its index if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply sqlite schema: %w", err)
		}
	}
	return nil
}

// workDiaryRow is the on-disk shape; timestamps are TEXT in YYYY-MM-DD HH:MM:SS form.
type workDiaryRow struct {
	ID                  int64       `db:"id"`
	ProjectID           string      `db:"projectID"`
	UserID              string      `db:"userID"`
	TaskID              string      `db:"taskID"`
	ScreenshotTimeStamp string      `db:"screenshotTimeStamp"`
	CalcTimeStamp       string      `db:"calcTimeStamp"`
	KeyboardJSON        null.String `db:"keyboardJSON"`
	MouseJSON           null.String `db:"mouseJSON"`
	ActiveJSON          null.String `db:"activeJSON"`
	ActiveFlag          null.Int    `db:"activeFlag"`
	ActiveMins          null.Int    `db:"activeMins"`
	DeletedFlag         int64       `db:"deletedFlag"`
	ActiveMemo          null.String `db:"activeMemo"`
	ImageURL            null.String `db:"imageURL"`
	ThumbNailURL        null.String `db:"thumbNailURL"`
}

func toRow(e *entity.WorkDiaryEntry) workDiaryRow {
	return workDiaryRow{
		ProjectID:           e.ProjectID,
		UserID:              e.UserID,
		TaskID:              e.TaskID,
		ScreenshotTimeStamp: e.ScreenshotTimeStamp.Format(entity.TimestampLayout),
		CalcTimeStamp:       e.CalcTimeStamp.Format(entity.TimestampLayout),
		KeyboardJSON:        e.KeyboardJSON,
		MouseJSON:           e.MouseJSON,
		ActiveJSON:          e.ActiveJSON,
		ActiveFlag:          e.ActiveFlag,
		ActiveMins:          e.ActiveMins,
		DeletedFlag:         e.DeletedFlag,
		ActiveMemo:          e.ActiveMemo,
		ImageURL:            e.ImageURL,
		ThumbNailURL:        e.ThumbNailURL,
	}
}

func (row workDiaryRow) toEntity() (entity.WorkDiaryEntry, error) {
	screenshotAt, err := time.Parse(entity.TimestampLayout, row.ScreenshotTimeStamp)
	if err != nil {
		return entity.WorkDiaryEntry{}, fmt.Errorf("row %d: bad screenshotTimeStamp: %w", row.ID, err)
	}
	calcAt, err := time.Parse(entity.TimestampLayout, row.CalcTimeStamp)
	if err != nil {
		return entity.WorkDiaryEntry{}, fmt.Errorf("row %d: bad calcTimeStamp: %w", row.ID, err)
	}
	return entity.WorkDiaryEntry{
		ID:                  row.ID,
		ProjectID:           row.ProjectID,
		UserID:              row.UserID,
		TaskID:              row.TaskID,
		ScreenshotTimeStamp: screenshotAt,
		CalcTimeStamp:       calcAt,
		KeyboardJSON:        row.KeyboardJSON,
		MouseJSON:           row.MouseJSON,
		ActiveJSON:          row.ActiveJSON,
		ActiveFlag:          row.ActiveFlag,
		ActiveMins:          row.ActiveMins,
		DeletedFlag:         row.DeletedFlag,
		ActiveMemo:          row.ActiveMemo,
		ImageURL:            row.ImageURL,
		ThumbNailURL:        row.ThumbNailURL,
	}, nil
}

// WorkDiaryRepoImpl provides a concrete implementation for the WorkDiaryRepository interface using SQLite.
type WorkDiaryRepoImpl struct {
	db *sqlx.DB
}

// NewWorkDiaryRepo creates a new instance of WorkDiaryRepoImpl.
func NewWorkDiaryRepo(db *sqlx.DB) *WorkDiaryRepoImpl {
	return &WorkDiaryRepoImpl{db: db}
}

func (r *WorkDiaryRepoImpl) Create(ctx context.Context, e *entity.WorkDiaryEntry) (int64, error) {
	query := `
		INSERT INTO workDiary
			(projectID, userID, taskID, screenshotTimeStamp, calcTimeStamp, keyboardJSON, mouseJSON, activeJSON,
			 activeFlag, activeMins, deletedFlag, activeMemo, imageURL, thumbNailURL)
		VALUES
			(:projectID, :userID, :taskID, :screenshotTimeStamp, :calcTimeStamp, :keyboardJSON, :mouseJSON, :activeJSON,
			 :activeFlag, :activeMins, :deletedFlag, :activeMemo, :imageURL, :thumbNailURL)
	`
	res, err := r.db.NamedExecContext(ctx, query, toRow(e))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *WorkDiaryRepoImpl) FindByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]entity.WorkDiaryEntry, error) {
	query := `
		SELECT id, projectID, userID, taskID, screenshotTimeStamp, calcTimeStamp,
		       keyboardJSON, mouseJSON, activeJSON,
		       activeFlag, activeMins, deletedFlag, activeMemo, imageURL, thumbNailURL
		FROM workDiary
		WHERE userID = ? AND screenshotTimeStamp BETWEEN ? AND ?
		ORDER BY screenshotTimeStamp ASC, id ASC
	`
	var rows []workDiaryRow
	err := r.db.SelectContext(ctx, &rows, query,
		userID,
		from.Format(entity.TimestampLayout),
		to.Format(entity.TimestampLayout),
	)
	if err != nil {
		return nil, err
	}

	entries := make([]entity.WorkDiaryEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *WorkDiaryRepoImpl) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
