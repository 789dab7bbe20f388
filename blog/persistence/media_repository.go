package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dfryer1193/inkpress/blog/domain"
)

var _ domain.MediaRepository = (*FileMediaRepository)(nil)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9-_]+`)

// FileMediaRepository stores uploaded media files (images, audio) on the
// local filesystem under a public uploads directory.
type FileMediaRepository struct {
	dir       string
	publicURL string
	now       func() time.Time
}

// NewMediaRepository creates a FileMediaRepository writing to dir and
// returning URLs under publicURL (e.g. "/uploads").
func NewMediaRepository(dir string, publicURL string) *FileMediaRepository {
	return &FileMediaRepository{
		dir:       dir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

// Save writes the uploaded bytes under a sanitized, timestamped name so
// repeat uploads of the same filename never clobber each other.
func (r *FileMediaRepository) Save(ctx context.Context, fileName string, data []byte) (*domain.Media, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	name := r.safeName(filepath.Base(fileName))
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write media file: %w", err)
	}

	return &domain.Media{
		Name: name,
		URL:  r.publicURL + "/" + name,
	}, nil
}

// safeName lowercases the base name, collapses anything outside [a-z0-9-_]
// and appends a millisecond timestamp before the original extension.
func (r *FileMediaRepository) safeName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "-"), "-")
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s-%d%s", base, r.now().UnixMilli(), ext)
}
