// Package csvexport writes sampled points as per-region CSV files for
// spreadsheet and GIS tools that do not read Parquet.
package csvexport

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// Row is one CSV record.
type Row struct {
	FID         int64   `csv:"fid"`
	Longitude   float64 `csv:"longitude"`
	Latitude    float64 `csv:"latitude"`
	LC          int32   `csv:"lc"`
	Region      string  `csv:"Region"`
	Oversampled bool    `csv:"oversampled"`
}

// Exporter writes sampled points to CSV. It implements pipeline.SampleExporter.
type Exporter struct{}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes samples to path, one record per point.
func (e *Exporter) Export(path string, samples []domain.PointSample) error {
	return WriteFile(path, ToRows(samples))
}

// ToRows converts samples to CSV records, preserving order.
func ToRows(samples []domain.PointSample) []Row {
	rows := make([]Row, len(samples))
	for i, s := range samples {
		rows[i] = Row{
			FID:         s.FID,
			Longitude:   s.Longitude,
			Latitude:    s.Latitude,
			LC:          s.LC,
			Region:      s.Region,
			Oversampled: s.Oversampled,
		}
	}
	return rows
}

// WriteFile writes rows with a header line to path, replacing any existing file.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close() //nolint:errcheck // marshal error takes precedence
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ReadFile reads rows written by WriteFile.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
