package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxAvatarSize is the largest accepted avatar upload.
const MaxAvatarSize = 5 << 20

var (
	// ErrAvatarTooLarge is returned when the upload exceeds MaxAvatarSize.
	ErrAvatarTooLarge = errors.New("avatar image is too large")

	// ErrUnsupportedImage is returned when the upload is not a recognised
	// image format. The type is sniffed from the content, not the filename.
	ErrUnsupportedImage = errors.New("avatar must be a PNG, JPEG, GIF or WebP image")
)

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarStore keeps uploaded avatar images on local disk under random names.
type AvatarStore struct {
	basePath string
}

// NewAvatarStore creates the store, making sure the base directory exists.
func NewAvatarStore(basePath string) (*AvatarStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory: %w", err)
	}
	return &AvatarStore{basePath: basePath}, nil
}

// Dir returns the directory avatars are stored in.
func (s *AvatarStore) Dir() string {
	return s.basePath
}

// Save reads an uploaded image and writes it under a fresh uuid name,
// returning the stored file name.
func (s *AvatarStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	ext, ok := avatarExtensions[mimetype.Detect(data).String()]
	if !ok {
		return "", ErrUnsupportedImage
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.basePath, name), data, 0644); err != nil {
		return "", err
	}
	return name, nil
}

// Remove deletes a stored avatar file. A name that is already gone is not an
// error.
func (s *AvatarStore) Remove(name string) error {
	// Base strips any path components a stored value could smuggle in.
	err := os.Remove(filepath.Join(s.basePath, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
