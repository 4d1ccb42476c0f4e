package csvout

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateworks/od600-etl/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestWrite(t *testing.T) {
	t.Run("unannotated table has four columns", func(t *testing.T) {
		table := domain.Table{Observations: []domain.Observation{
			{Well: "A1", TimeS: 0, TimeH: 0, OD: 0.1},
			{Well: "A1", TimeS: 3600, TimeH: 1, OD: 0.15},
		}}

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, table, Policy{}))

		assert.Equal(t, "Well,Time_s,Time_h,OD\nA1,0,0,0.1\nA1,3600,1,0.15\n", buf.String())
	})

	t.Run("annotated table appends Condition", func(t *testing.T) {
		table := domain.Table{
			Annotated: true,
			Observations: []domain.Observation{
				{Well: "A1", TimeS: 0, OD: 0.1, Condition: strPtr("glucose")},
				{Well: "B2", TimeS: 0, OD: 0.2},
			},
		}

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, table, Policy{}))

		assert.Equal(t, "Well,Time_s,Time_h,OD,Condition\nA1,0,0,0.1,glucose\nB2,0,0,0.2,\n", buf.String())
	})

	t.Run("drop policy removes unmapped rows", func(t *testing.T) {
		table := domain.Table{
			Annotated: true,
			Observations: []domain.Observation{
				{Well: "A1", TimeS: 0, OD: 0.1, Condition: strPtr("glucose")},
				{Well: "B2", TimeS: 0, OD: 0.2},
			},
		}

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, table, Policy{DropUnmapped: true}))

		assert.NotContains(t, buf.String(), "B2")
		assert.Contains(t, buf.String(), "A1")
	})

	t.Run("fractional hours keep full precision", func(t *testing.T) {
		table := domain.Table{Observations: []domain.Observation{
			{Well: "A1", TimeS: 1800, TimeH: 0.5, OD: 0.1},
		}}

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, table, Policy{}))

		assert.Contains(t, buf.String(), "A1,1800,0.5,0.1")
	})
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	table := domain.Table{Observations: []domain.Observation{
		{Well: "A1", TimeS: 0, OD: 0.1},
	}}

	require.NoError(t, WriteFile(path, table, Policy{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Well,Time_s,Time_h,OD\nA1,0,0,0.1\n", string(data))
}
