package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/logging"
	"github.com/dmitrijs2005/gophblog/internal/server/storage"
	"github.com/google/uuid"
)

// ThumbnailSize bounds both sides of a stored profile picture.
const ThumbnailSize = 125

// ProfileService turns uploads into thumbnails and keeps them in an ImageStore.
type ProfileService struct {
	store      storage.ImageStore
	defaultURL string
	log        logging.Logger

	newName func() string
}

// NewProfileService builds the service. defaultURL is where the shared
// placeholder picture is served from, whatever the store.
func NewProfileService(store storage.ImageStore, defaultURL string, log logging.Logger) *ProfileService {
	return &ProfileService{
		store:      store,
		defaultURL: defaultURL,
		log:        log.With("module", "profiles"),
		newName:    func() string { return uuid.NewString() },
	}
}

// Store decodes the upload, fits it into ThumbnailSize x ThumbnailSize
// without upscaling and saves it under a fresh random name that keeps the
// original extension. It returns the stored name.
func (s *ProfileService) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return "", fmt.Errorf("%w: unsupported file type %q", common.ErrImageProcessing, ext)
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrImageProcessing, err)
	}

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrImageProcessing, err)
	}

	name := s.newName() + ext
	if err := s.store.Save(ctx, name, mime.TypeByExtension(ext), &buf); err != nil {
		return "", fmt.Errorf("store picture: %w", err)
	}

	s.log.Debug(ctx, "picture stored", "name", name, "width", thumb.Bounds().Dx(), "height", thumb.Bounds().Dy())
	return name, nil
}

// Remove deletes a stored picture. The placeholder is never removed and
// failures are only logged.
func (s *ProfileService) Remove(ctx context.Context, name string) {
	if name == "" || name == common.DefaultImageFile {
		return
	}
	if err := s.store.Delete(ctx, name); err != nil {
		s.log.Warn(ctx, "failed to remove picture", "name", name, "error", err)
	}
}

// URL is the browser address of a stored picture.
func (s *ProfileService) URL(name string) string {
	if name == "" || name == common.DefaultImageFile {
		return s.defaultURL
	}
	return s.store.URL(name)
}
