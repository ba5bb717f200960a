package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"scoregaps/adapters/excel"
	"scoregaps/domain/comparison"
	"scoregaps/domain/facts"
	"scoregaps/internal"
	"scoregaps/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	table *facts.Table
	err   error
}

func (m *memoryWriter) ReplaceAll(ctx context.Context, table *facts.Table) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.table = table
	return table.Len(), nil
}

func etlInput() *facts.Table {
	female := testkit.RowNoD("Gender", "LSAT", "US", 2023, "Female")
	female.Mean, female.SD = 150, 10
	male := testkit.RowNoD("Gender", "LSAT", "US", 2023, "Male")
	male.Mean, male.SD = 152, 10
	return facts.NewTable([]facts.FactRow{male, female})
}

func TestRunETLImportsThroughWriter(t *testing.T) {
	refs := comparison.NewResolver(map[string]string{"Gender": "Female"})
	out := filepath.Join(t.TempDir(), "filled.csv")
	writer := &memoryWriter{}

	var buf bytes.Buffer
	require.NoError(t, runETL(context.Background(), &buf, etlInput(), refs, out, writer))

	require.NotNil(t, writer.table)
	rows := writer.table.Rows()
	require.NotNil(t, rows[0].CohensD)
	assert.InDelta(t, 0.2, *rows[0].CohensD, 1e-9)
	require.NotNil(t, rows[1].CohensD)
	assert.Equal(t, 0.0, *rows[1].CohensD)

	assert.Contains(t, buf.String(), "Computed Cohen's d for 2 of 2 rows")
	assert.Contains(t, buf.String(), "Imported 2 rows into fact_rows")

	written, err := excel.NewFileSource(out).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, written.Rows())
}

func TestRunETLWithoutOutputs(t *testing.T) {
	refs := comparison.NewResolver(map[string]string{"Gender": "Female"})

	var buf bytes.Buffer
	require.NoError(t, runETL(context.Background(), &buf, etlInput(), refs, "", nil))
	assert.NotContains(t, buf.String(), "Wrote")
	assert.NotContains(t, buf.String(), "Imported")

	err := runETL(context.Background(), &buf, etlInput(), refs, "", &memoryWriter{err: fmt.Errorf("connection refused")})
	assert.EqualError(t, err, "connection refused")
}

func TestCLILoggerDefaultsToWarn(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, internal.LogLevelWarn, cliLogger().GetLevel())

	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, internal.LogLevelDebug, cliLogger().GetLevel())
}
