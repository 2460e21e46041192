package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthtrack-dev/wealthtrack/internal/schema"
)

func testService(t *testing.T) *Service {
	t.Helper()
	svc := NewService()
	svc.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestImportReader_HappyPath(t *testing.T) {
	in := strings.Join([]string{
		"Symbol,Shares,Cost Basis,Market Value",
		"AAPL,3,450,510",
		"VTI,5,500,530",
	}, "\n")

	res, err := testService(t).ImportReader(strings.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, "sofi", res.Profile)
	assert.Equal(t, 2, res.Rows)
	assert.Empty(t, res.RowErrors)
	require.Len(t, res.Positions, 2)

	// Matched profile label and import time are stamped on every position.
	assert.Equal(t, "sofi", res.Positions[0].Source)
	assert.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), res.Positions[0].Added)
}

func TestImportReader_SourceOverride(t *testing.T) {
	in := "Symbol,Shares,Cost Basis\nAAPL,3,450\n"

	res, err := testService(t).ImportReader(strings.NewReader(in), Options{Source: "my-broker"})
	require.NoError(t, err)
	require.Len(t, res.Positions, 1)
	assert.Equal(t, "my-broker", res.Positions[0].Source)
}

func TestImportReader_BadRowsCollected(t *testing.T) {
	in := strings.Join([]string{
		"Symbol,Shares,Cost Basis",
		"AAPL,3,450",
		"GOOG,abc,100",
		"VTI,5,500",
	}, "\n")

	res, err := testService(t).ImportReader(strings.NewReader(in), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Len(t, res.Positions, 2)
	require.Len(t, res.RowErrors, 1)
	assert.Equal(t, 3, res.RowErrors[0].Row)
	assert.Equal(t, 1, res.Rejected())
}

func TestImportReader_UndetectableSchemaFatal(t *testing.T) {
	in := "Foo,Bar\n1,2\n"

	_, err := testService(t).ImportReader(strings.NewReader(in), Options{})

	var serr *schema.Error
	require.ErrorAs(t, err, &serr)
}

func TestImportReader_EmptyFile(t *testing.T) {
	_, err := testService(t).ImportReader(strings.NewReader(""), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestImportReader_RowCeiling(t *testing.T) {
	var b strings.Builder
	b.WriteString("Symbol,Shares,Cost Basis\n")
	for i := 0; i < 5; i++ {
		b.WriteString("AAPL,1,100\n")
	}

	_, err := testService(t).ImportReader(strings.NewReader(b.String()), Options{MaxRows: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 3 rows")
}

func TestImportReader_ByteCeiling(t *testing.T) {
	in := "Symbol,Shares,Cost Basis\nAAPL,1,100\nVTI,2,200\n"

	_, err := testService(t).ImportReader(strings.NewReader(in), Options{MaxFileBytes: 30})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bytes")
}

func TestImportReader_RaggedRowsTolerated(t *testing.T) {
	// A short row reads as blanks in the missing columns and is rejected by
	// normalization, not by the CSV reader.
	in := strings.Join([]string{
		"Symbol,Shares,Cost Basis",
		"AAPL,3,450",
		"VTI",
	}, "\n")

	res, err := testService(t).ImportReader(strings.NewReader(in), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Positions, 1)
	require.Len(t, res.RowErrors, 1)
	assert.Equal(t, 3, res.RowErrors[0].Row)
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holdings-export.csv")
	require.NoError(t, os.WriteFile(path, []byte("Symbol,Shares,Cost Basis\nAAPL,3,450\n"), 0o644))

	res, err := testService(t).ImportFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Positions, 1)

	_, err = testService(t).ImportFile(filepath.Join(dir, "missing.csv"), Options{})
	require.Error(t, err)
}
