package domain

import (
	"fmt"
	"time"
)

// Warning is one non-fatal anomaly, located well enough that a user can find
// the offending export region.
type Warning struct {
	Sheet   string // sheet name, or the file name for CSV sources
	Row     int    // zero-based row index within the sheet; -1 when not row-specific
	Message string
}

func (w Warning) String() string {
	if w.Row < 0 {
		return fmt.Sprintf("%s: %s", w.Sheet, w.Message)
	}
	return fmt.Sprintf("%s row %d: %s", w.Sheet, w.Row, w.Message)
}

// SheetSummary records how many cycles one scanned sheet contributed.
type SheetSummary struct {
	Sheet  string
	Cycles int
}

// Diagnostics collects counts and warnings across one run. The parsing core
// writes here instead of to any output stream; the surrounding CLI or
// service decides what to log, print, or export.
type Diagnostics struct {
	TimeMarkers   int // markers with a resolved time, across all sheets
	Observations  int
	SheetsScanned int
	SheetsSkipped int // sheets that produced no cycle blocks

	Sheets []SheetSummary // per-sheet cycle counts, in scan order

	Warnings      []Warning
	UnmappedWells []string // distinct wells with no mapping entry, deduplicated

	GeneratedAt time.Time
}

// NewDiagnostics returns an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Warnf records a located warning.
func (d *Diagnostics) Warnf(sheet string, row int, format string, args ...any) {
	d.Warnings = append(d.Warnings, Warning{
		Sheet:   sheet,
		Row:     row,
		Message: fmt.Sprintf(format, args...),
	})
}

// Finalize stamps the collector once a run completes.
func (d *Diagnostics) Finalize() {
	d.GeneratedAt = clock.Now()
}
