package kbo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, content string) *Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewTable(DatasetEnterprise, path)
}

func TestTableForEach_NormalizedKeys(t *testing.T) {
	table := writeTable(t, "EnterpriseNumber;Status;StartDate\n0123.456.789;AC;2026-01-01\n")

	var rows []Row
	skipped, err := table.ForEach(context.Background(), func(row Row) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "0123.456.789", rows[0]["enterprise_number"])
	assert.Equal(t, "AC", rows[0]["status"])
	assert.Equal(t, "2026-01-01", rows[0]["start_date"])
}

func TestTableForEach_SkipsMalformedRows(t *testing.T) {
	table := writeTable(t, "a;b;c\n1;2;3\nonly;two\n4;5;6\n")

	var count int
	skipped, err := table.ForEach(context.Background(), func(Row) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 2, count)
}

func TestTableForEach_Restartable(t *testing.T) {
	table := writeTable(t, "a,b\n1,2\n3,4\n")

	for pass := 0; pass < 2; pass++ {
		var count int
		_, err := table.ForEach(context.Background(), func(Row) error {
			count++
			return nil
		})
		require.NoError(t, err, "pass %d", pass)
		assert.Equal(t, 2, count, "pass %d", pass)
	}
}

func TestTableForEach_StopScan(t *testing.T) {
	table := writeTable(t, "a\n1\n2\n3\n")

	var count int
	_, err := table.ForEach(context.Background(), func(Row) error {
		count++
		if count == 2 {
			return ErrStopScan
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRowGet(t *testing.T) {
	row := Row{"a": "", "b": " x ", "c": "y"}
	assert.Equal(t, "x", row.Get("a", "b", "c"))
	assert.Equal(t, "", row.Get("a", "missing"))
}

func TestRowFind(t *testing.T) {
	row := Row{"street_fr": "Rue Haute", "other": ""}
	assert.Equal(t, "Rue Haute", row.Find("street"))
	assert.Equal(t, "", row.Find("postcode"))
}

func TestTableForEach_MissingFile(t *testing.T) {
	table := NewTable(DatasetEnterprise, filepath.Join(t.TempDir(), "absent.csv"))
	_, err := table.ForEach(context.Background(), func(Row) error { return nil })
	require.Error(t, err)
}
