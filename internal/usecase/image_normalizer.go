package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/guregu/null.v3"

	"github.com/user/workdiary-service/internal/entity"
	"github.com/user/workdiary-service/internal/repository"
	"github.com/user/workdiary-service/pkg/metrics"
	"github.com/user/workdiary-service/pkg/utils"
)

const (
	defaultImageExtension   = ".png"
	defaultImageContentType = "image/png"
)

var errEmptyImage = errors.New("empty image body")

var dataURIPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

// ImageNormalizer converges the three accepted image input shapes into one stored reference.
type ImageNormalizer interface {
	// Normalize stores the image submitted for slot and returns its reference.
	// An empty input yields a null reference and no side effects.
	Normalize(ctx context.Context, slot entity.ImageSlot, in entity.ImageInput) (null.String, error)
	// Discard releases a reference returned by Normalize that will not be persisted.
	Discard(ctx context.Context, ref string) error
}

type imageNormalizer struct {
	store    repository.ImageStore
	fetcher  repository.ImageFetcher
	cache    repository.ImageCache
	cacheTTL time.Duration
}

// NewImageNormalizer creates an ImageNormalizer. cache may be nil to disable caching of remote images.
func NewImageNormalizer(
	store repository.ImageStore,
	fetcher repository.ImageFetcher,
	cache repository.ImageCache,
	cacheTTL time.Duration,
) ImageNormalizer {
	return &imageNormalizer{
		store:    store,
		fetcher:  fetcher,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// ClassifyImageInput picks the source that wins for a slot: upload, then base64, then URL.
func ClassifyImageInput(in entity.ImageInput) entity.ImageSource {
	switch {
	case len(in.Upload) > 0:
		return entity.SourceUpload
	case strings.HasPrefix(in.Value, "data:image"):
		return entity.SourceBase64
	case in.Value != "":
		return entity.SourceURL
	default:
		return entity.SourceNone
	}
}

func (n *imageNormalizer) Normalize(ctx context.Context, slot entity.ImageSlot, in entity.ImageInput) (null.String, error) {
	source := ClassifyImageInput(in)

	var (
		data []byte
		err  error
	)
	switch source {
	case entity.SourceNone:
		return null.String{}, nil
	case entity.SourceUpload:
		data = in.Upload
	case entity.SourceBase64:
		data, err = decodeDataURI(in.Value)
		if err != nil {
			return null.String{}, validationf(err, "invalid base64 image for %s", slot)
		}
	case entity.SourceURL:
		data, err = n.fetchRemote(ctx, slot, in.Value)
		if err != nil {
			return null.String{}, err
		}
	}

	if len(data) == 0 {
		metrics.ImageFetchErrorsTotal.WithLabelValues("empty").Inc()
		return null.String{}, &ImageFetchError{URL: in.Value, Err: errEmptyImage}
	}
	img := describeImage(data)

	ref, err := n.store.Save(ctx, img)
	if err != nil {
		return null.String{}, &StorageError{Op: fmt.Sprintf("Failed to store %s image", slot), Err: err}
	}

	metrics.ImagesNormalizedTotal.WithLabelValues(string(slot), string(source)).Inc()
	slog.Debug("Image normalized", "slot", slot, "source", source, "content_type", img.ContentType, "bytes", len(img.Data))
	return null.StringFrom(ref), nil
}

func (n *imageNormalizer) Discard(ctx context.Context, ref string) error {
	return n.store.Discard(ctx, ref)
}

func (n *imageNormalizer) fetchRemote(ctx context.Context, slot entity.ImageSlot, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, validationf(err, "%s must be a data:image base64 string or an http(s) URL", slot)
	}

	downloadURL := rawURL
	if utils.IsDriveURL(rawURL) {
		downloadURL, err = utils.DriveDownloadURL(rawURL)
		if err != nil {
			metrics.ImageFetchErrorsTotal.WithLabelValues("drive_link").Inc()
			return nil, &ImageFetchError{URL: rawURL, Err: err}
		}
	}

	if data, ok := n.cachedImage(ctx, downloadURL); ok {
		return data, nil
	}

	data, err := n.fetcher.Fetch(ctx, downloadURL)
	if err != nil {
		metrics.ImageFetchErrorsTotal.WithLabelValues(fetchErrorReason(err)).Inc()
		slog.Error("Image fetch error", "slot", slot, "url", downloadURL, "error", err)
		return nil, &ImageFetchError{URL: rawURL, Err: err}
	}

	if n.cache != nil {
		if err := n.cache.Set(ctx, downloadURL, data, n.cacheTTL); err != nil {
			slog.Warn("Failed to cache remote image", "url", downloadURL, "error", err)
		}
	}
	return data, nil
}

func (n *imageNormalizer) cachedImage(ctx context.Context, downloadURL string) ([]byte, bool) {
	if n.cache == nil {
		return nil, false
	}
	data, found, err := n.cache.Get(ctx, downloadURL)
	switch {
	case err != nil:
		metrics.ImageCacheLookupsTotal.WithLabelValues("error").Inc()
		slog.Warn("Remote image cache lookup failed", "url", downloadURL, "error", err)
		return nil, false
	case !found:
		metrics.ImageCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.ImageCacheLookupsTotal.WithLabelValues("hit").Inc()
		return data, true
	}
}

func fetchErrorReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrFetchBadStatus):
		return "status"
	case errors.Is(err, repository.ErrFetchTooLarge):
		return "too_large"
	case errors.Is(err, repository.ErrFetchNotAnImage):
		return "not_image"
	default:
		return "request"
	}
}

// decodeDataURI strips the data:image/...;base64, prefix and decodes the payload.
func decodeDataURI(value string) ([]byte, error) {
	loc := dataURIPrefix.FindStringIndex(value)
	if loc == nil {
		return nil, errors.New("invalid base64 string")
	}
	payload := strings.Join(strings.Fields(value[loc[1]:]), "")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image payload")
	}
	return data, nil
}

// describeImage names the bytes by their sniffed image type. Payloads that do not sniff as an image
// are kept as they are and stored as PNG.
func describeImage(data []byte) *entity.Image {
	img := &entity.Image{Data: data, ContentType: defaultImageContentType, Extension: defaultImageExtension}
	mtype := mimetype.Detect(data)
	if strings.HasPrefix(mtype.String(), "image/") && mtype.Extension() != "" {
		img.ContentType = mtype.String()
		img.Extension = mtype.Extension()
	}
	return img
}
