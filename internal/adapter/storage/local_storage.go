package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage файловое хранилище на локальном диске (для CLI)
type LocalStorage struct {
	root string
}

// NewLocalStorage создаёт хранилище в каталоге root
func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Upload сохраняет файл и возвращает ключ
func (s *LocalStorage) Upload(ctx context.Context, fileName string, contentType string, reader io.Reader, size int64) (string, error) {
	fileKey := newFileKey(fileName)
	p, err := s.path(fileKey)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("failed to create dir: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		s.removePartial(p)
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.removePartial(p)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return fileKey, nil
}

// removePartial убирает недописанный файл вместе с каталогом ключа
func (s *LocalStorage) removePartial(p string) {
	_ = os.Remove(p)
	_ = os.Remove(filepath.Dir(p))
}

// Download открывает файл по ключу
func (s *LocalStorage) Download(ctx context.Context, fileKey string) (io.ReadCloser, error) {
	p, err := s.path(fileKey)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete удаляет файл и его каталог с uuid
func (s *LocalStorage) Delete(ctx context.Context, fileKey string) error {
	p, err := s.path(fileKey)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	_ = os.Remove(filepath.Dir(p))
	return nil
}

func (s *LocalStorage) path(fileKey string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(fileKey))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid file key %q", fileKey)
	}
	return filepath.Join(s.root, clean), nil
}
