package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Store keeps uploaded homework files on local disk. Refs handed out are
// opaque to the rest of the system; only this package knows they are
// filenames under the upload directory.
type Store interface {
	Put(name string, data []byte) (ref string, err error)
	Get(ref string) ([]byte, error)
}

type diskStore struct {
	dir string
}

func NewDiskStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("files.NewDiskStore: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

func (s *diskStore) Put(name string, data []byte) (string, error) {
	ref := uuid.NewString() + "-" + safeName(name)
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("diskStore.Put: %w", err)
	}
	return ref, nil
}

func (s *diskStore) Get(ref string) ([]byte, error) {
	// Refs are generated by Put; reject anything that tries to escape the dir.
	if ref != filepath.Base(ref) {
		return nil, fmt.Errorf("diskStore.Get: invalid ref %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("diskStore.Get: %w", err)
	}
	return data, nil
}

func safeName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	cleaned := slug.Make(strings.TrimSuffix(base, ext))
	if cleaned == "" {
		cleaned = "file"
	}
	return cleaned + strings.ToLower(ext)
}
