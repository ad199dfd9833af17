// Package blobstore implements component C7's archival half: once a tier
// has been solved and its chunked record file closed, a Backend can copy
// that file off to cheaper or longer-lived storage. This is optional —
// internal/tierdb.FileDirectory remains the system of record for solving
// and querying; blobstore only archives a finished file elsewhere.
package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/gamescrafters/tiersolve/pkg/config"
)

// Backend archives and retrieves tier record files by key. The key shape
// used by callers is "<game>/<variant>/<tier>.tier", mirroring
// internal/tierdb.FileDirectory's on-disk layout.
type Backend interface {
	// Upload copies data from reader to key.
	Upload(ctx context.Context, key string, reader io.Reader) error
	// UploadFile copies the local file at localPath to key.
	UploadFile(ctx context.Context, key string, localPath string) error
	// Download returns a reader over the object at key. The caller must
	// close it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// DownloadFile copies the object at key to a local file, creating
	// parent directories as needed.
	DownloadFile(ctx context.Context, key string, localPath string) error
	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns a reference URL for the object at key, for logging.
	URL(key string) string
}

// New builds a Backend from cfg, mirroring the teacher's
// internal/storage.NewStorage type-switch factory.
func New(cfg config.BlobstoreConfig) (Backend, error) {
	switch cfg.Type {
	case "", "local":
		path := cfg.LocalPath
		if path == "" {
			path = "archive"
		}
		return NewLocalBackend(path), nil
	case "cos":
		return NewCOSBackend(cfg)
	default:
		return nil, fmt.Errorf("unsupported blobstore type: %s", cfg.Type)
	}
}
