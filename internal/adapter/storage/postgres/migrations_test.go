package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"wallet-ledger/migrations"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_RequiresURL(t *testing.T) {
	err := RunMigrations("", "", zerolog.Nop())
	assert.EqualError(t, err, "database URL cannot be empty")
}

func TestEmbeddedMigrations_Paired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		assert.Contains(t, downs, down)
	}
}

func TestEmbeddedMigrations_BalanceNeverNegative(t *testing.T) {
	b, err := fs.ReadFile(migrations.FS, "000001_create_users_wallets.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "CHECK (balance >= 0)")
}
