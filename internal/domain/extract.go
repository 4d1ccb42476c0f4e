package domain

import (
	"strconv"
	"strings"
)

// ExtractBlock turns one cycle block into observations. Columns run 1 through
// min(12, cells available). A missing or malformed reading yields no
// observation for that well — the well is absent from this cycle's output,
// never present with a null OD. Malformed tokens are reported; empty cells
// are not.
func ExtractBlock(sheetName string, block CycleBlock, d *Diagnostics) []Observation {
	var out []Observation
	for _, row := range block.DataRows {
		letter := strings.TrimSpace(row[0])
		limit := min(maxGridColumns, len(row)-1)
		for col := 1; col <= limit; col++ {
			v, status := ParseNumeric(row[col])
			switch status {
			case NumericMissing:
				continue
			case NumericMalformed:
				d.Warnf(sheetName, -1, "could not convert OD value %q for well %s%d", row[col], letter, col)
				continue
			}
			out = append(out, Observation{
				Well:  letter + strconv.Itoa(col),
				TimeS: block.TimeS,
				TimeH: block.TimeS / 3600.0,
				OD:    v,
			})
		}
	}
	return out
}

// BuildTable scans every sheet, extracts every discovered cycle, and
// assembles the flat observation table in cycle order. No deduplication is
// performed: a well recurring at the same time in two cycles keeps both rows.
//
// A sheet that yields no cycle blocks is skipped with a warning; the run is
// fatal only when no sheet anywhere produced a marker, or markers were found
// but nothing extracted.
func BuildTable(sheets []Sheet, opts ScanOptions, d *Diagnostics) (Table, error) {
	var table Table
	for _, sheet := range sheets {
		blocks := ScanSheet(sheet, opts, d)
		if len(blocks) == 0 {
			d.SheetsSkipped++
			continue
		}
		for _, block := range blocks {
			table.Observations = append(table.Observations, ExtractBlock(sheet.Name, block, d)...)
		}
	}

	if d.TimeMarkers == 0 {
		return Table{}, ErrNoTimeMarkers
	}
	if len(table.Observations) == 0 {
		return Table{}, ErrNoObservations
	}
	d.Observations = len(table.Observations)
	return table, nil
}
