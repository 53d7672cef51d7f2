package upload

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// MaxFileSize is the upload ceiling for a single image.
const MaxFileSize = 5 << 20 // 5 MB

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads"

var (
	ErrUnsupportedType = errors.New("only image files are allowed")
	ErrFileTooLarge    = errors.New("image exceeds the 5 MB limit")
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// Store keeps product images on the local filesystem, one file per
// product. Filenames are <field>-<unixmillis>-<random><ext> so
// concurrent uploads cannot collide.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Validate checks type and size without touching the disk, so a bad
// upload can reject the whole request before any mutation happens.
func (s *Store) Validate(fh *multipart.FileHeader) error {
	if fh.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return ErrUnsupportedType
	}
	if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return ErrUnsupportedType
	}
	return nil
}

// Save writes the upload to disk and returns its public path.
func (s *Store) Save(fh *multipart.FileHeader, field string) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("%s-%d-%d%s", field, time.Now().UnixMilli(), rand.Int63n(1_000_000_000), ext)

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return path.Join(PublicPrefix, name), nil
}

// Remove deletes the file behind a public path. Missing files are not
// an error: the record is the source of truth and the file may already
// be gone.
func (s *Store) Remove(publicPath string) error {
	if publicPath == "" {
		return nil
	}

	full := filepath.Join(s.dir, path.Base(publicPath))
	if _, err := os.Stat(full); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(full)
}
