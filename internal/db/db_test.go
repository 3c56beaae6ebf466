package db

import (
	"io/fs"
	"net/url"
	"strings"
	"testing"

	"github.com/propmgr/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresURL(t *testing.T) {
	raw := PostgresURL(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "p@ss word",
		DBName:   "propmgr",
		UseSSL:   true,
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5433", u.Host)
	assert.Equal(t, "app", u.User.Username())
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "/propmgr", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}
