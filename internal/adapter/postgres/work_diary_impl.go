package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/workdiary-service/internal/entity"
)

//go:embed schema.sql
var schema string

// WorkDiaryRepoImpl provides a concrete implementation for the WorkDiaryRepository interface using PostgreSQL.
type WorkDiaryRepoImpl struct {
	db *pgxpool.Pool
}

// NewWorkDiaryRepo creates a new instance of WorkDiaryRepoImpl.
func NewWorkDiaryRepo(db *pgxpool.Pool) *WorkDiaryRepoImpl {
	return &WorkDiaryRepoImpl{db: db}
}

// Migrate creates the workDiary table and its index if they do not exist.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply postgres schema: %w", err)
	}
	return nil
}

// Create inserts the entry in a single statement and returns the generated id.
func (r *WorkDiaryRepoImpl) Create(ctx context.Context, e *entity.WorkDiaryEntry) (int64, error) {
	query := `
		INSERT INTO workDiary
			(projectID, userID, taskID, screenshotTimeStamp, calcTimeStamp, keyboardJSON, mouseJSON, activeJSON,
			 activeFlag, activeMins, deletedFlag, activeMemo, imageURL, thumbNailURL)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id;
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		e.ProjectID,
		e.UserID,
		e.TaskID,
		e.ScreenshotTimeStamp,
		e.CalcTimeStamp,
		e.KeyboardJSON,
		e.MouseJSON,
		e.ActiveJSON,
		e.ActiveFlag,
		e.ActiveMins,
		e.DeletedFlag,
		e.ActiveMemo,
		e.ImageURL,
		e.ThumbNailURL,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByUserBetween retrieves the user's entries with a screenshot timestamp in [from, to].
func (r *WorkDiaryRepoImpl) FindByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]entity.WorkDiaryEntry, error) {
	query := `
		SELECT id, projectID, userID, taskID, screenshotTimeStamp, calcTimeStamp,
		       keyboardJSON::text, mouseJSON::text, activeJSON::text,
		       activeFlag, activeMins, deletedFlag, activeMemo, imageURL, thumbNailURL
		FROM workDiary
		WHERE userID = $1 AND screenshotTimeStamp BETWEEN $2 AND $3
		ORDER BY screenshotTimeStamp ASC, id ASC;
	`
	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entity.WorkDiaryEntry
	for rows.Next() {
		var e entity.WorkDiaryEntry
		if err := rows.Scan(
			&e.ID,
			&e.ProjectID,
			&e.UserID,
			&e.TaskID,
			&e.ScreenshotTimeStamp,
			&e.CalcTimeStamp,
			&e.KeyboardJSON,
			&e.MouseJSON,
			&e.ActiveJSON,
			&e.ActiveFlag,
			&e.ActiveMins,
			&e.DeletedFlag,
			&e.ActiveMemo,
			&e.ImageURL,
			&e.ThumbNailURL,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *WorkDiaryRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
