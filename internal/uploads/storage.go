package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnsupportedPhoto is returned for files that are not a known image type
var ErrUnsupportedPhoto = errors.New("photo must be a png, jpg, gif or webp image")

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Storage writes cover photos to a directory served as static files
type Storage struct {
	dir     string
	baseURL string
	log     *zap.Logger
}

// NewStorage creates the upload directory if needed
func NewStorage(dir, baseURL string, log *zap.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir, baseURL: baseURL, log: log}, nil
}

// Dir is the directory files are written to
func (s *Storage) Dir() string {
	return s.dir
}

// Save stores the uploaded file under a generated name and returns its public URL
func (s *Storage) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedPhoto
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write photo file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close photo file: %w", err)
	}

	s.log.Info("Photo stored", zap.String("file", name), zap.Int64("size", fh.Size))
	return s.URL(name), nil
}

// URL builds the public URL of a stored file name
func (s *Storage) URL(name string) string {
	return s.baseURL + name
}

// Remove deletes the file behind a URL produced by Save. URLs from another
// base are ignored.
func (s *Storage) Remove(url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo file: %w", err)
	}
	return nil
}
