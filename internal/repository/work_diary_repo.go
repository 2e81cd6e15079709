package repository

import (
	"context"
	"time"

	"github.com/user/workdiary-service/internal/entity"
)

// WorkDiaryRepository defines the interface for persisting and reading work diary entries.
type WorkDiaryRepository interface {
	// Create inserts a single entry in one statement and returns its generated id.
	Create(ctx context.Context, entry *entity.WorkDiaryEntry) (int64, error)
	// FindByUserBetween returns the user's entries whose screenshot timestamp lies in [from, to],
	// ordered by screenshot timestamp ascending.
	FindByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]entity.WorkDiaryEntry, error)
	// Ping checks connectivity to the database.
	Ping(ctx context.Context) error
}
