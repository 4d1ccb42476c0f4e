// Package csvout writes the assembled observation table as CSV with the
// stable column order Well, Time_s, Time_h, OD and, for annotated tables,
// Condition.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/plateworks/od600-etl/internal/domain"
)

// Policy controls output-side filtering. The parsing core never drops rows;
// anything removed here is an explicit presentation decision.
type Policy struct {
	// DropUnmapped removes rows whose well had no condition mapping entry.
	// Selected by UNMAPPED_WELL_POLICY=drop; the default keeps them with an
	// empty Condition cell. Meaningless for unannotated tables.
	DropUnmapped bool
}

// Write emits the table to w.
func Write(w io.Writer, table domain.Table, policy Policy) error {
	cw := csv.NewWriter(w)

	header := []string{"Well", "Time_s", "Time_h", "OD"}
	if table.Annotated {
		header = append(header, "Condition")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, obs := range table.Observations {
		if table.Annotated && policy.DropUnmapped && obs.Condition == nil {
			continue
		}
		record := []string{
			obs.Well,
			formatFloat(obs.TimeS),
			formatFloat(obs.TimeH),
			formatFloat(obs.OD),
		}
		if table.Annotated {
			var cond string
			if obs.Condition != nil {
				cond = *obs.Condition
			}
			record = append(record, cond)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row for well %s: %w", obs.Well, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, truncating any existing file.
func WriteFile(path string, table domain.Table, policy Policy) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Write(f, table, policy); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
