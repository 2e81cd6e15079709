package imagestore

import (
	"context"
	"encoding/base64"

	"github.com/user/workdiary-service/internal/entity"
)

// InlineStoreImpl keeps images in the row itself as plain base64, without a data: prefix.
type InlineStoreImpl struct{}

func NewInlineStore() *InlineStoreImpl {
	return &InlineStoreImpl{}
}

func (s *InlineStoreImpl) Save(ctx context.Context, img *entity.Image) (string, error) {
	return base64.StdEncoding.EncodeToString(img.Data), nil
}

// Discard is a no-op; nothing exists outside the row.
func (s *InlineStoreImpl) Discard(ctx context.Context, ref string) error {
	return nil
}
