package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalBackend archives blobs into a directory tree, mirroring the
// teacher's internal/storage.LocalStorage.
type LocalBackend struct {
	basePath string
}

// NewLocalBackend returns a Backend rooted at basePath.
func NewLocalBackend(basePath string) *LocalBackend {
	return &LocalBackend{basePath: basePath}
}

// GetBasePath returns the backend's root directory.
func (b *LocalBackend) GetBasePath() string { return b.basePath }

func (b *LocalBackend) fullPath(key string) string {
	return filepath.Join(b.basePath, filepath.FromSlash(key))
}

func (b *LocalBackend) Upload(ctx context.Context, key string, reader io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	path := b.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}

func (b *LocalBackend) UploadFile(ctx context.Context, key string, localPath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer src.Close()
	return b.Upload(ctx, key, src)
}

func (b *LocalBackend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(b.fullPath(key))
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	return f, nil
}

func (b *LocalBackend) DownloadFile(ctx context.Context, key string, localPath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	src, err := os.Open(b.fullPath(key))
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy archive file: %w", err)
	}
	return nil
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.Remove(b.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete archive file: %w", err)
	}
	return nil
}

func (b *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	_, err := os.Stat(b.fullPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat archive file: %w", err)
}

func (b *LocalBackend) URL(key string) string {
	return "file://" + b.fullPath(key)
}
