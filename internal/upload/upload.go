package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const sniffLen = 512

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmpty           = errors.New("file is empty")
)

// allowed maps accepted image MIME types to file extensions.
var allowed = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store saves uploaded images below a root directory.
type Store struct {
	root     string
	maxBytes int64
}

// New creates the root directory if needed.
func New(root string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

// Root returns the directory files are stored in.
func (s *Store) Root() string {
	return s.root
}

// SaveImage stores an image read from r in the kind subdirectory and returns
// its path relative to the root, e.g. "avatars/<uuid>.png". The type is taken
// from the content, never from the client-supplied name.
func (s *Store) SaveImage(kind string, r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return "", ErrEmpty
	}
	head = head[:n]

	ext, ok := allowed[mimetype.Detect(head).String()]
	if !ok {
		return "", ErrUnsupportedType
	}

	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(kind, name)), nil
}

// Remove deletes a file previously returned by SaveImage. Missing files are ignored.
func (s *Store) Remove(rel string) error {
	path := filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+rel)))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
