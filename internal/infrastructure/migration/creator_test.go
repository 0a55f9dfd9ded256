package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Patients Table", "Initial patient registry schema")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, "_add_patients_table.up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, "_add_patients_table.down.sql"))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Add Patients Table")
	assert.Contains(t, string(up), "Initial patient registry schema")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Patients Table", "add_patients_table"},
		{"add-bill-items", "add_bill_items"},
		{"Advances  &  Payments!", "advances_payments"},
		{"trailing_", "trailing"},
		{"UPPER123", "upper123"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"20240101000000_patients.up.sql",
		"20240101000000_patients.down.sql",
		"20240102000000_admissions.up.sql",
		"20240102000000_admissions.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0644))
	}

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20240101000000_patients",
		"20240102000000_admissions",
	}, migrations)
}

func TestListMigrations_MissingDir(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}
