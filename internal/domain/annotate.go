package domain

import (
	"sort"
	"strings"
)

// Mapping source column headers, matched exactly.
const (
	mappingWellField      = "Well"
	mappingConditionField = "Condition"
)

// WellMapping associates wells with experimental condition labels.
type WellMapping struct {
	conditions map[string]string
}

// NewWellMapping builds a mapping from a tabular sheet whose first row is a
// header naming the Well and Condition columns. Either column absent is
// ErrMappingFields — validated here, before any join is attempted.
// Duplicate entries for a well resolve first-seen.
func NewWellMapping(sheet Sheet) (WellMapping, error) {
	if len(sheet.Rows) == 0 {
		return WellMapping{}, ErrMappingFields
	}

	wellCol, condCol := -1, -1
	for i, cell := range sheet.Rows[0] {
		switch strings.TrimSpace(cell) {
		case mappingWellField:
			if wellCol < 0 {
				wellCol = i
			}
		case mappingConditionField:
			if condCol < 0 {
				condCol = i
			}
		}
	}
	if wellCol < 0 || condCol < 0 {
		return WellMapping{}, ErrMappingFields
	}

	m := WellMapping{conditions: make(map[string]string)}
	for _, row := range sheet.Rows[1:] {
		if len(row) <= wellCol || len(row) <= condCol {
			continue
		}
		well := strings.TrimSpace(row[wellCol])
		if well == "" {
			continue
		}
		if _, dup := m.conditions[well]; dup {
			continue
		}
		m.conditions[well] = strings.TrimSpace(row[condCol])
	}
	return m, nil
}

// Condition looks up the condition label for a well.
func (m WellMapping) Condition(well string) (string, bool) {
	c, ok := m.conditions[well]
	return c, ok
}

// Len returns the number of mapped wells.
func (m WellMapping) Len() int { return len(m.conditions) }

// Annotate left-joins the table against the mapping on the well identifier.
// Every observation survives; unmatched wells keep a nil condition and are
// recorded on the collector, deduplicated and sorted. Mapping entries for
// wells that never appear in the data contribute nothing.
//
// Re-annotating with the same mapping is idempotent: conditions are
// overwritten, never appended, so values cannot drift and rows cannot
// duplicate.
func Annotate(table Table, m WellMapping, d *Diagnostics) Table {
	out := Table{
		Observations: make([]Observation, len(table.Observations)),
		Annotated:    true,
	}

	unmapped := make(map[string]bool)
	for i, obs := range table.Observations {
		if cond, ok := m.Condition(obs.Well); ok {
			obs.Condition = &cond
		} else {
			obs.Condition = nil
			unmapped[obs.Well] = true
		}
		out.Observations[i] = obs
	}

	if len(unmapped) > 0 {
		wells := make([]string, 0, len(unmapped))
		for well := range unmapped {
			wells = append(wells, well)
		}
		sort.Strings(wells)
		d.UnmappedWells = wells
		d.Warnf("", -1, "wells with no condition mapping: %s", strings.Join(wells, ", "))
	}
	return out
}
