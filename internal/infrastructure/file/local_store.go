package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps uploads on the local filesystem and hands out file://
// URLs. Paths without a scheme are resolved against BaseDir.
type LocalStore struct {
	BaseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) Store(ctx context.Context, data []byte, contentType, fileName string) (string, error) {
	_ = ctx

	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir %s: %w", s.BaseDir, err)
	}

	path := filepath.Join(s.BaseDir, objectName(fileName))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve file %s: %w", path, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func (s *LocalStore) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	_ = ctx

	path, err := s.resolve(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return data, nil
}

func (s *LocalStore) resolve(rawURL string) (string, error) {
	if !strings.Contains(rawURL, "://") {
		if filepath.IsAbs(rawURL) {
			return rawURL, nil
		}
		return filepath.Join(s.BaseDir, rawURL), nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, parsed.Scheme)
	}
	return filepath.FromSlash(parsed.Path), nil
}

// objectName prefixes the sanitized upload name with a UUID so repeated
// uploads of the same file never collide.
func objectName(fileName string) string {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "import.xlsx"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ' ':
			return '_'
		case r < 0x20:
			return -1
		default:
			return r
		}
	}, base)
	return uuid.NewString() + "-" + base
}
