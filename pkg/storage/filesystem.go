package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists files on disk under a base directory and serves them
// through signed tokens appended to publicBase.
type LocalStorage struct {
	baseDir    string
	publicBase string
	signer     *SignedURLSigner
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicBase string, signer *SignedURLSigner) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if signer == nil {
		return nil, errors.New("local storage requires a url signer")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicBase: strings.TrimRight(publicBase, "/"), signer: signer}, nil
}

// Put streams r into the file addressed by key.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create stored file: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(target)
		return fmt.Errorf("write stored file: %w", err)
	}
	return file.Close()
}

// URL returns a signed download link for key.
func (s *LocalStorage) URL(_ context.Context, key string) (string, error) {
	token, _, err := s.signer.Generate(key)
	if err != nil {
		return "", err
	}
	return s.publicBase + "/" + token, nil
}

// Resolve validates a download token and returns the absolute path it grants.
func (s *LocalStorage) Resolve(token string) (string, error) {
	key, _, err := s.signer.Parse(token)
	if err != nil {
		return "", err
	}
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat stored file: %w", err)
	}
	return target, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}
