package domain

import "strings"

// timeMarkerLabel anchors the start of a cycle in every export shape the
// instrument produces.
const timeMarkerLabel = "Time [s]"

const (
	// maxGridRows bounds one plate snapshot: rows A through H.
	maxGridRows = 8
	// maxGridColumns bounds one grid row: plate columns 1 through 12.
	maxGridColumns = 12

	// DefaultGridSearchWindow is how many rows past a marker the scanner
	// looks for the first grid row in windowed mode. A tolerance heuristic
	// for exports that interleave metadata rows, not a format guarantee.
	DefaultGridSearchWindow = 10
)

// MarkerMatch selects how a cell is tested against the time marker label.
type MarkerMatch int

const (
	// MatchPrefix requires the label at the start of the cell. CSV exports.
	MatchPrefix MarkerMatch = iota
	// MatchContains accepts the label anywhere in the cell. XLSX exports
	// sometimes pad or decorate the marker cell.
	MatchContains
)

// ScanOptions tunes cycle block discovery per source shape.
type ScanOptions struct {
	MarkerMatch MarkerMatch

	// GridSearchWindow bounds the forward search for the first grid row
	// after a marker. Only consulted with MatchContains; zero means
	// DefaultGridSearchWindow.
	GridSearchWindow int
}

func (o ScanOptions) window() int {
	if o.GridSearchWindow > 0 {
		return o.GridSearchWindow
	}
	return DefaultGridSearchWindow
}

// isMarkerRow reports whether the row's first cell carries the time label.
func isMarkerRow(row Row, mode MarkerMatch) bool {
	if len(row) == 0 {
		return false
	}
	if mode == MatchContains {
		return strings.Contains(row[0], timeMarkerLabel)
	}
	return strings.HasPrefix(row[0], timeMarkerLabel)
}

// isGridRow reports whether the row's first cell, trimmed, is a bare plate
// row letter A–H.
func isGridRow(row Row) bool {
	if len(row) == 0 {
		return false
	}
	c := strings.TrimSpace(row[0])
	return len(c) == 1 && c[0] >= 'A' && c[0] <= 'H'
}

// marker is a located time marker row. ok is false when the time cell was
// blank or malformed; such a marker opens nothing and the rows after it are
// discarded until the next usable marker.
type marker struct {
	idx  int
	time float64
	ok   bool
}

// ScanSheet discovers the ordered cycle blocks of one sheet. Anomalies
// degrade to warnings on the collector; a sheet that yields no blocks is the
// caller's concern, not an error here.
func ScanSheet(sheet Sheet, opts ScanOptions, d *Diagnostics) []CycleBlock {
	d.SheetsScanned++

	markers := locateMarkers(sheet, opts, d)
	if len(markers) == 0 {
		d.Warnf(sheet.Name, -1, "no time markers found")
		d.Sheets = append(d.Sheets, SheetSummary{Sheet: sheet.Name})
		return nil
	}

	var blocks []CycleBlock
	for k, m := range markers {
		if !m.ok {
			continue
		}
		// Rows belonging to this cycle end where the next marker begins.
		bound := len(sheet.Rows)
		if k+1 < len(markers) {
			bound = markers[k+1].idx
		}

		var rows []Row
		if opts.MarkerMatch == MatchContains {
			rows = collectWindowedGrid(sheet, m, bound, opts.window(), d)
		} else {
			rows = collectGrid(sheet, m.idx+1, bound)
		}
		if len(rows) == 0 {
			continue
		}
		blocks = append(blocks, CycleBlock{TimeS: m.time, DataRows: rows})
	}
	d.Sheets = append(d.Sheets, SheetSummary{Sheet: sheet.Name, Cycles: len(blocks)})
	return blocks
}

// locateMarkers finds every marker row and resolves its time. Only markers
// with a resolved time count toward the run's marker total.
func locateMarkers(sheet Sheet, opts ScanOptions, d *Diagnostics) []marker {
	var markers []marker
	for i, row := range sheet.Rows {
		if !isMarkerRow(row, opts.MarkerMatch) {
			continue
		}
		var token string
		if len(row) > 1 {
			token = row[1]
		}
		v, status := ParseNumeric(token)
		switch status {
		case NumericValue:
			markers = append(markers, marker{idx: i, time: v, ok: true})
			d.TimeMarkers++
		case NumericMalformed:
			d.Warnf(sheet.Name, i, "could not convert time value %q", token)
			markers = append(markers, marker{idx: i})
		default:
			// Blank time cell: the marker still closes the previous cycle,
			// it just opens nothing itself.
			markers = append(markers, marker{idx: i})
		}
	}
	return markers
}

// collectGrid gathers every grid row between a marker and the next one.
// CSV exports place the grid immediately after the marker with no filler,
// so no window search is needed.
func collectGrid(sheet Sheet, from, bound int) []Row {
	var rows []Row
	for j := from; j < bound; j++ {
		if isGridRow(sheet.Rows[j]) {
			rows = append(rows, sheet.Rows[j])
		}
	}
	return rows
}

// collectWindowedGrid locates the grid start within the bounded search
// window after a marker, then gathers at most maxGridRows rows from there.
// Non-grid rows inside that span are skipped, not fatal.
func collectWindowedGrid(sheet Sheet, m marker, bound, window int, d *Diagnostics) []Row {
	start := -1
	limit := min(m.idx+window+1, bound)
	for j := m.idx + 1; j < limit; j++ {
		if isGridRow(sheet.Rows[j]) {
			start = j
			break
		}
	}
	if start < 0 {
		d.Warnf(sheet.Name, m.idx, "could not locate data rows for cycle at time %g", m.time)
		return nil
	}

	var rows []Row
	end := min(start+maxGridRows, bound)
	for j := start; j < end; j++ {
		if isGridRow(sheet.Rows[j]) {
			rows = append(rows, sheet.Rows[j])
		}
	}
	return rows
}
