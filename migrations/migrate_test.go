package migrations

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreForwardOnly(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
		assert.True(t, strings.HasSuffix(e.Name(), ".up.sql"), "unexpected migration file %s", e.Name())
	}
	assert.True(t, sort.StringsAreSorted(names))
}

func TestEmbeddedMigrationsAreIdempotent(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)

	for _, e := range entries {
		body, err := fs.ReadFile(FS, e.Name())
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(body), ";") {
			upper := strings.ToUpper(strings.TrimSpace(stmt))
			if strings.HasPrefix(upper, "CREATE TABLE") || strings.HasPrefix(upper, "CREATE UNIQUE INDEX") ||
				strings.HasPrefix(upper, "CREATE INDEX") || strings.HasPrefix(upper, "CREATE EXTENSION") {
				assert.Contains(t, upper, "IF NOT EXISTS", "%s: %s", e.Name(), stmt)
			}
		}
	}
}

func TestUsersMigrationDeclaresAuthIndexes(t *testing.T) {
	body, err := fs.ReadFile(FS, "000003_devise_setup.up.sql")
	require.NoError(t, err)
	sql := string(body)

	for _, idx := range []string{
		"UNIQUE INDEX IF NOT EXISTS index_users_on_email",
		"UNIQUE INDEX IF NOT EXISTS index_users_on_reset_password_token",
		"UNIQUE INDEX IF NOT EXISTS index_users_on_confirmation_token",
		"UNIQUE INDEX IF NOT EXISTS index_users_on_unlock_token",
		"INDEX IF NOT EXISTS index_users_on_location_id",
		"INDEX IF NOT EXISTS index_users_on_last_name",
	} {
		assert.Contains(t, sql, idx)
	}
}
