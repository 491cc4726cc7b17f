// Package archive streams accident rows out of a zipped CSV dataset.
package archive

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// ErrNoCSVEntry is returned when the archive contains no .csv file.
var ErrNoCSVEntry = errors.New("archive contains no CSV entry")

// Reader reads header-indexed rows from the first CSV entry of a zip archive,
// stopping after maxRows data rows. It implements pipeline.RowReader.
type Reader struct {
	zr      *zip.ReadCloser
	entry   io.ReadCloser
	csv     *csv.Reader
	header  []string
	columns map[string]int
	maxRows int
	line    int
	read    int
	logger  *slog.Logger
}

// Open opens the archive at path and positions the reader on the first CSV
// entry, in archive order. maxRows <= 0 means unbounded.
func Open(path string, maxRows int, logger *slog.Logger) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	entry, name, err := firstCSVEntry(&zr.Reader)
	if err != nil {
		zr.Close() //nolint:errcheck // the lookup error is the one to report
		return nil, err
	}

	cr := csv.NewReader(entry)
	cr.FieldsPerRecord = -1 // the dataset has occasional ragged rows; tolerate them
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		entry.Close() //nolint:errcheck
		zr.Close()    //nolint:errcheck
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	cleaned := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		cleaned[i] = name
		columns[name] = i
	}

	logger.Info("opened dataset",
		"archive", path,
		"entry", name,
		"columns", len(cleaned),
		"max_rows", maxRows,
	)

	return &Reader{
		zr:      zr,
		entry:   entry,
		csv:     cr,
		header:  cleaned,
		columns: columns,
		maxRows: maxRows,
		line:    1,
		logger:  logger,
	}, nil
}

// firstCSVEntry returns an opened reader for the first *.csv file in the archive.
func firstCSVEntry(zr *zip.Reader) (io.ReadCloser, string, error) {
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			rc, err := f.Open()
			if err != nil {
				return nil, "", fmt.Errorf("open archive entry %s: %w", f.Name, err)
			}
			return rc, f.Name, nil
		}
	}
	return nil, "", ErrNoCSVEntry
}

// Header returns the cleaned CSV header names.
func (r *Reader) Header() []string {
	return r.header
}

// HasColumn reports whether the dataset carries the named column.
func (r *Reader) HasColumn(name string) bool {
	_, ok := r.columns[name]
	return ok
}

// Read returns the next data row, or io.EOF after the last row or once the
// row cap is reached. Rows shorter than the header are padded with empty
// fields rather than rejected.
func (r *Reader) Read() (domain.RawRow, error) {
	if r.maxRows > 0 && r.read >= r.maxRows {
		return domain.RawRow{}, io.EOF
	}

	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.RawRow{}, io.EOF
		}
		return domain.RawRow{}, fmt.Errorf("read CSV row: %w", err)
	}
	r.line++
	r.read++

	fields := make(map[string]string, len(r.header))
	for name, idx := range r.columns {
		if idx < len(record) {
			fields[name] = record[idx]
		}
	}

	return domain.RawRow{Line: r.line, Fields: fields}, nil
}

// Close releases the archive entry and the archive itself.
func (r *Reader) Close() error {
	entryErr := r.entry.Close()
	if err := r.zr.Close(); err != nil {
		return err
	}
	return entryErr
}
