package tierdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"

	"github.com/gamescrafters/tiersolve/internal/model"
)

const solvedMarkerName = ".solved"

// FileDirectory is the filesystem Directory implementation: one tier
// record file per canonical tier, named by its decimal tier identifier,
// under root.
type FileDirectory struct {
	root string
}

// NewFileDirectory creates a Directory rooted at root, creating the
// directory if necessary.
func NewFileDirectory(root string) (*FileDirectory, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "create tier database directory", err)
	}
	return &FileDirectory{root: root}, nil
}

func (d *FileDirectory) tierPath(tier model.Tier) string {
	return filepath.Join(d.root, fmt.Sprintf("%d.tier", uint64(tier)))
}

// Create implements Directory.
func (d *FileDirectory) Create(tier model.Tier, size int, chunkSize int) (Store, error) {
	return newChunkedFileStore(d.tierPath(tier), size, chunkSize), nil
}

// Open implements Directory.
func (d *FileDirectory) Open(tier model.Tier) (Store, error) {
	return openChunkedFileStore(d.tierPath(tier))
}

// Exists implements Directory.
func (d *FileDirectory) Exists(tier model.Tier) bool {
	_, err := os.Stat(d.tierPath(tier))
	return err == nil
}

// Path implements Directory.
func (d *FileDirectory) Path(tier model.Tier) string {
	return d.tierPath(tier)
}

// MarkSolved implements Directory.
func (d *FileDirectory) MarkSolved(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	f, err := os.Create(filepath.Join(d.root, solvedMarkerName))
	if err != nil {
		return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "write solved marker", err)
	}
	return f.Close()
}

// IsSolved implements Directory.
func (d *FileDirectory) IsSolved(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}
	_, err := os.Stat(filepath.Join(d.root, solvedMarkerName))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "stat solved marker", err)
}
