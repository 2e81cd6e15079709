package entity

import (
	"time"

	"gopkg.in/guregu/null.v3"
)

// TimestampLayout is the timezone-naive form timestamps are stored and returned in.
const TimestampLayout = "2006-01-02 15:04:05"

// WorkDiaryEntry mirrors the `workDiary` table schema.
type WorkDiaryEntry struct {
	ID                  int64
	ProjectID           string
	UserID              string
	TaskID              string
	ScreenshotTimeStamp time.Time
	CalcTimeStamp       time.Time
	KeyboardJSON        null.String // serialized JSON
	MouseJSON           null.String
	ActiveJSON          null.String
	ActiveFlag          null.Int
	ActiveMins          null.Int
	DeletedFlag         int64
	ActiveMemo          null.String
	ImageURL            null.String // relative path or base64 payload, depending on image storage
	ThumbNailURL        null.String
}
