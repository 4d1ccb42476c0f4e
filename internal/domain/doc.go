// Package domain models microplate reader OD600 growth-curve exports.
//
// # Data Source
//
// Optical density (OD600) time series originate from microplate reader
// instruments. The reader measures a 96-well plate in repeated "cycles":
// one full-plate snapshot per time point, written to a CSV or XLSX file by
// the instrument software. The export is human-readable and has no fixed
// schema — cycle boundaries are discovered by scanning content, never read
// from fixed offsets.
//
// # Export Conventions
//
// Cycle marker:
//
//	A row whose first cell carries the literal label "Time [s]" opens a
//	cycle. The second cell holds the elapsed time in seconds. CSV exports
//	place the label at the very start of the cell (prefix match); XLSX
//	exports may embed it inside a longer cell value (substring match).
//	A marker whose time cell does not parse opens nothing: grid rows are
//	discarded until the next marker with a usable time.
//
// Plate grid:
//
//	Up to 8 rows follow each marker, one per plate row A–H, each carrying
//	up to 12 numeric readings for columns 1–12. A well identifier is the
//	row letter concatenated with the 1-based column number, no zero
//	padding: "A1" .. "H12". XLSX exports may interleave blank or label
//	rows between the marker and the grid; the scanner looks ahead a small
//	bounded window (default 10 rows — a tolerance heuristic, not a format
//	guarantee) to find the first grid row.
//
// Missing and malformed values:
//
//	An empty or whitespace-only cell means the well was not measured in
//	that cycle; it yields no observation. A non-empty cell that fails
//	float conversion is reported as a warning and likewise yields no
//	observation. A single bad token never aborts a run.
//
// Derived time:
//
//	Time_h = Time_s / 3600.0 in IEEE-754 double precision, no rounding.
//
// # Condition Mapping
//
// An optional external table with "Well" and "Condition" columns labels
// each well with its experimental condition. Annotation is a left join on
// the well identifier: every observation survives, unmatched wells keep an
// absent condition and are reported once, deduplicated. Duplicate mapping
// entries resolve first-seen.
package domain
