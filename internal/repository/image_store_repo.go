package repository

import (
	"context"

	"github.com/user/workdiary-service/internal/entity"
)

// ImageStore turns decoded image content into the value stored in the imageURL/thumbNailURL columns.
type ImageStore interface {
	// Save persists the image and returns its stored reference.
	Save(ctx context.Context, img *entity.Image) (string, error)
	// Discard undoes Save for a reference that will not be committed.
	Discard(ctx context.Context, ref string) error
}
