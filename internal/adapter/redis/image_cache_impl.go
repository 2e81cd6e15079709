package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/workdiary-service/pkg/utils"
)

const imageCachePrefix = "workdiary:image:"

// ImageCacheImpl provides a concrete implementation for the ImageCache interface using Redis strings.
type ImageCacheImpl struct {
	client *redis.Client
}

// NewImageCache creates a new instance of ImageCacheImpl.
func NewImageCache(client *redis.Client) *ImageCacheImpl {
	return &ImageCacheImpl{client: client}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *ImageCacheImpl) generateKey(downloadURL string) string {
	return fmt.Sprintf("%s%s", imageCachePrefix, utils.HashURL(downloadURL))
}

// Get returns the cached bytes for downloadURL. A missing key is reported as found=false, not as an error.
func (r *ImageCacheImpl) Get(ctx context.Context, downloadURL string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.generateKey(downloadURL)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the image bytes with an expiry.
func (r *ImageCacheImpl) Set(ctx context.Context, downloadURL string, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.generateKey(downloadURL), data, ttl).Err()
}

func (r *ImageCacheImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
