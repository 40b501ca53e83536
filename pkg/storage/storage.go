package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists uploaded media files and returns public URLs for them.
type Storage interface {
	Save(ctx context.Context, remotePath string, r io.Reader) (string, error)
	Delete(ctx context.Context, remotePath string) error
}

// Local stores files on the local filesystem under a base directory and
// serves them under a base URL path.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates a local disk storage rooted at dir.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Dir returns the base directory files are stored under.
func (l *Local) Dir() string { return l.dir }

// Save writes the reader contents to remotePath and returns the public URL.
func (l *Local) Save(ctx context.Context, remotePath string, r io.Reader) (string, error) {
	cleaned, err := l.resolve(remotePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cleaned), 0o755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}

	f, err := os.Create(cleaned)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(cleaned)
		return "", fmt.Errorf("write file: %w", err)
	}

	return l.baseURL + "/" + filepath.ToSlash(strings.TrimPrefix(remotePath, "/")), nil
}

// Delete removes a stored file. Missing files are not an error.
func (l *Local) Delete(ctx context.Context, remotePath string) error {
	cleaned, err := l.resolve(remotePath)
	if err != nil {
		return err
	}

	if err := os.Remove(cleaned); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve joins the base dir with remotePath and rejects traversal outside it.
func (l *Local) resolve(remotePath string) (string, error) {
	joined := filepath.Join(l.dir, filepath.FromSlash(strings.TrimPrefix(remotePath, "/")))
	cleaned := filepath.Clean(joined)
	base := filepath.Clean(l.dir)
	if cleaned != base && !strings.HasPrefix(cleaned, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path %q", remotePath)
	}
	return cleaned, nil
}
