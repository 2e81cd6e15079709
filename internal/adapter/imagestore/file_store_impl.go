package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/user/workdiary-service/internal/entity"
)

// PublicPrefix is the URL path images written by FileStoreImpl are served under.
const PublicPrefix = "/images"

// FileStoreImpl writes images to a public directory and references them by relative URL.
type FileStoreImpl struct {
	dir string
}

// NewFileStore creates a FileStoreImpl rooted at dir. The directory is created on first write.
func NewFileStore(dir string) *FileStoreImpl {
	return &FileStoreImpl{dir: dir}
}

// Dir returns the directory images are written to.
func (s *FileStoreImpl) Dir() string {
	return s.dir
}

// Save writes the image under a random unique name and returns /images/<name>.
func (s *FileStoreImpl) Save(ctx context.Context, img *entity.Image) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory %s: %w", s.dir, err)
	}

	name := uuid.NewString() + img.Extension
	if err := os.WriteFile(filepath.Join(s.dir, name), img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", name, err)
	}
	return path.Join(PublicPrefix, name), nil
}

// Discard deletes the file behind ref. A file that is already gone is not an error.
func (s *FileStoreImpl) Discard(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, PublicPrefix+"/") {
		return fmt.Errorf("not a stored image reference: %q", ref)
	}
	name := path.Base(ref)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
