package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore deletes uploaded files from a directory on disk. Photo URLs
// are mapped onto the directory by their path component.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: root directory required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Delete removes the file the URL points at. A file that is already gone
// is not an error.
func (s *LocalStore) Delete(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("storage: parse url %q: %w", rawURL, err)
	}
	clean := path.Clean("/" + u.Path)
	target := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(target, s.root+string(os.PathSeparator)) {
		return fmt.Errorf("storage: url %q escapes storage root", rawURL)
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("storage: remove %s: %w", target, err)
	}
	return nil
}
