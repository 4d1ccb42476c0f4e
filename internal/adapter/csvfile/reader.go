// Package csvfile reads comma-delimited plate reader exports into the
// scanner's sheet representation. A CSV export is a single sheet.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/plateworks/od600-etl/internal/domain"
)

// Read parses comma-delimited content into one sheet named after the source.
// Ragged rows are expected — cycle marker rows carry fewer cells than grid
// rows. Instrument software on Windows prepends a UTF-8 BOM, which is
// stripped so the first marker still matches.
func Read(r io.Reader, name string) (domain.Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("read csv %s: %w", name, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\uFEFF")
	}

	rows := make([]domain.Row, len(records))
	for i, rec := range records {
		rows[i] = domain.Row(rec)
	}
	return domain.Sheet{Name: name, Rows: rows}, nil
}

// ReadFile reads one CSV export from disk.
func ReadFile(path string) (domain.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}
