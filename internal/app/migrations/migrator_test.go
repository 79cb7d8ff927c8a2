package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("001_init.sql"))
	assert.Equal(t, "002", Version("/x/migrations/002_add_zone_index.sql"))
}

func TestPendingFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := PendingFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "001_a.sql"), filepath.Join(dir, "002_b.sql")}, files)
}

func TestRepositoryMigrationsExist(t *testing.T) {
	files, err := PendingFiles(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "pg_notify('messages_inserted'")
	assert.Contains(t, string(body), "read_by     UUID[] NOT NULL DEFAULT '{}'")

	require.GreaterOrEqual(t, len(files), 2)
	body, err = os.ReadFile(files[1])
	require.NoError(t, err)
	assert.Contains(t, string(body), "pg_notify('activity'")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS schedules")
	assert.Contains(t, string(body), "uq_assignments_client")
}
