// Package parquet persists pipeline tables as Parquet files.
package parquet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// ErrTableNotFound is returned when an input table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Store reads and writes the eroded and sampled tables.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// WritePixels writes an eroded table with columns x, y, lc.
func (s *Store) WritePixels(path string, rows []domain.PixelRow) error {
	return writeTable(path, rows)
}

// ReadPixels reads an eroded table.
func (s *Store) ReadPixels(path string) ([]domain.PixelRow, error) {
	return readTable[domain.PixelRow](path)
}

// WriteSamples writes a sampled table with columns fid, longitude, latitude,
// lc, Region, oversampled.
func (s *Store) WriteSamples(path string, rows []domain.PointSample) error {
	return writeTable(path, rows)
}

// ReadSamples reads a sampled table.
func (s *Store) ReadSamples(path string) ([]domain.PointSample, error) {
	return readTable[domain.PointSample](path)
}

// writeTable writes next to the destination and renames into place so an
// interrupted run never leaves a truncated table behind.
func writeTable[T any](path string, rows []T) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // gone after a successful rename

	if err := parquet.Write(f, rows); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func readTable[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrTableNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
