package domain

import "errors"

// Fatal input conditions. Anything else the parser encounters is degraded to
// a warning and the run continues.
var (
	// ErrNoTimeMarkers means no sheet in the source contained a "Time [s]"
	// marker row — there is nothing to scan.
	ErrNoTimeMarkers = errors.New("no time markers found in input")

	// ErrNoObservations means markers were found but every grid cell was
	// missing or malformed, so the assembled table would be empty.
	ErrNoObservations = errors.New("no observations extracted from input")

	// ErrMappingFields means the condition mapping source lacks the required
	// Well or Condition column.
	ErrMappingFields = errors.New(`mapping must contain "Well" and "Condition" columns`)
)

// Row is one row of an export: an ordered sequence of string cells. Both the
// CSV and the XLSX adapters linearize their content into this shape so the
// scanner and extractor are written once.
type Row []string

// Sheet is one independently scannable unit of input: the whole file for a
// CSV export, one worksheet for an XLSX workbook.
type Sheet struct {
	Name string
	Rows []Row
}

// Observation is one (well, time, OD) reading. The same well recurs once per
// cycle; identity is (Well, TimeS), not Well alone. OD is present by
// construction — wells with a missing or malformed reading produce no
// Observation at all for that cycle.
type Observation struct {
	Well  string  `json:"well"` // row letter + column number, "A1".."H12"
	TimeS float64 `json:"time_s"`
	TimeH float64 `json:"time_h"` // TimeS / 3600.0
	OD    float64 `json:"od"`

	// Condition is set by Annotate; nil when no mapping was supplied or the
	// well has no mapping entry.
	Condition *string `json:"condition,omitempty"`
}

// CycleBlock is one discovered cycle: a resolved time and the raw grid rows
// that belong to it. Transient — it exists only between scanning and
// extraction. A block is never built without a resolved time.
type CycleBlock struct {
	TimeS    float64
	DataRows []Row
}

// Table is the assembled observation collection for one input source.
// Row order follows cycle order then grid scan order, but no consumer may
// rely on it.
type Table struct {
	Observations []Observation

	// Annotated records whether a condition mapping was joined in, which
	// decides whether output carries a Condition column.
	Annotated bool
}

// Wells returns the distinct well identifiers present in the table, in
// first-appearance order.
func (t Table) Wells() []string {
	seen := make(map[string]bool, len(t.Observations))
	var wells []string
	for _, obs := range t.Observations {
		if !seen[obs.Well] {
			seen[obs.Well] = true
			wells = append(wells, obs.Well)
		}
	}
	return wells
}

// TimePoints returns the distinct TimeS values present in the table, in
// first-appearance order.
func (t Table) TimePoints() []float64 {
	seen := make(map[float64]bool, len(t.Observations))
	var times []float64
	for _, obs := range t.Observations {
		if !seen[obs.TimeS] {
			seen[obs.TimeS] = true
			times = append(times, obs.TimeS)
		}
	}
	return times
}
