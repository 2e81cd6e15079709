package repository

import (
	"context"
	"errors"
	"time"
)

var (
	ErrFetchFailed     = errors.New("remote image request failed")
	ErrFetchBadStatus  = errors.New("remote image returned non-success status")
	ErrFetchTooLarge   = errors.New("remote image exceeds size limit")
	ErrFetchNotAnImage = errors.New("remote resource is not an image")
)

// ImageFetcher downloads the raw bytes behind a direct download URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, downloadURL string) ([]byte, error)
}

// ImageCache remembers bytes of remote images by download URL.
type ImageCache interface {
	// Get returns found=false on a miss.
	Get(ctx context.Context, downloadURL string) (data []byte, found bool, err error)
	Set(ctx context.Context, downloadURL string, data []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}
