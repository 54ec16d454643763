package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const DefaultMaxFileSize = 5 << 20 // 5MB

var (
	ErrUnsupportedFileType = errors.New("unsupported file type, only jpg, jpeg, png and gif images are allowed")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Store keeps uploaded image files on durable storage. Every file gets a
// generated collision-resistant name, so concurrent uploads never overwrite
// each other.
type Store interface {
	Save(data io.Reader, originalName string) (string, error)
	Delete(handle string) error
	List() ([]string, error)
}

type DiskStore struct {
	root    string
	maxSize int64
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create asset root: %w", err)
	}
	return &DiskStore{root: root, maxSize: DefaultMaxFileSize}, nil
}

// Save writes the upload under a fresh uuid-based name preserving the
// original extension and returns the handle. The extension must be on the
// image allow-list and the content must sniff as the image type the
// extension claims; anything larger than the size limit is rejected and the
// partial file removed.
func (s *DiskStore) Save(data io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	wantType, ok := allowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(data, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if contentType != wantType {
		return "", fmt.Errorf("%w: detected %s", ErrUnsupportedFileType, contentType)
	}

	handle := uuid.NewString() + ext
	dst := filepath.Join(s.root, handle)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}

	written, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), io.LimitReader(data, s.maxSize+1)))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write asset file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(dst)
		return "", fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.maxSize)
	}

	return handle, nil
}

// Delete removes the file behind the handle. Deleting an already-absent file
// is a no-op so retries are safe.
func (s *DiskStore) Delete(handle string) error {
	if handle == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.Base(handle)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete asset file: %w", err)
	}
	return nil
}

// List enumerates the files under the asset root. Hidden files (e.g.
// .gitkeep) and subdirectories are skipped.
func (s *DiskStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read asset root: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Path returns the on-disk location of a handle.
func (s *DiskStore) Path(handle string) string {
	return filepath.Join(s.root, filepath.Base(handle))
}

// Root returns the asset root directory.
func (s *DiskStore) Root() string {
	return s.root
}
