package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestResolveConnConfigDefaultsHostAndPort(t *testing.T) {
	t.Setenv("PGHOST", "")
	t.Setenv("PGPORT", "")

	cfg, err := ResolveConnConfig(ConnectOptions{DatabaseURL: "dbname=words"})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Host)
	require.Equal(t, uint16(5432), cfg.Port)
	require.Equal(t, "words", cfg.Database)
}

func TestResolveConnConfigKeepsURLHostAndPort(t *testing.T) {
	cfg, err := ResolveConnConfig(ConnectOptions{DatabaseURL: "postgres://app:pw@db.internal:6000/words"})
	require.NoError(t, err)
	require.Equal(t, "db.internal", cfg.Host)
	require.Equal(t, uint16(6000), cfg.Port)
	require.Equal(t, "app", cfg.User)
	require.Equal(t, "pw", cfg.Password)
}

func TestResolveConnConfigOverridesWin(t *testing.T) {
	cfg, err := ResolveConnConfig(ConnectOptions{
		DatabaseURL: "postgres://app:pw@db.internal:6000/words?sslmode=disable",
		Host:        "replica",
		Port:        7000,
		Name:        "archive",
		User:        "reader",
		Password:    "other",
	})
	require.NoError(t, err)
	require.Equal(t, "replica", cfg.Host)
	require.Equal(t, uint16(7000), cfg.Port)
	require.Equal(t, "archive", cfg.Database)
	require.Equal(t, "reader", cfg.User)
	require.Equal(t, "other", cfg.Password)
}

func TestResolveConnConfigOverridesApplyToFallbacks(t *testing.T) {
	cfg, err := ResolveConnConfig(ConnectOptions{
		DatabaseURL: "postgres://db.internal/words?sslmode=prefer",
		Host:        "replica",
	})
	require.NoError(t, err)
	for _, fb := range cfg.Fallbacks {
		require.Equal(t, "replica", fb.Host)
	}
}

func TestResolveConnConfigKeepsSpacedKeywordHostPort(t *testing.T) {
	cfg, err := ResolveConnConfig(ConnectOptions{DatabaseURL: "host = db.example port = 6543 dbname=wordsdb"})
	require.NoError(t, err)
	require.Equal(t, "db.example", cfg.Host)
	require.Equal(t, uint16(6543), cfg.Port)
	require.Equal(t, "wordsdb", cfg.Database)
}

func TestResolveConnConfigRejectsGarbage(t *testing.T) {
	_, err := ResolveConnConfig(ConnectOptions{DatabaseURL: "postgres://%zz"})
	require.Error(t, err)
}

func TestSpecifiesHostPort(t *testing.T) {
	cases := []struct {
		dsn        string
		host, port bool
	}{
		{"", false, false},
		{"postgres:///words", false, false},
		{"postgres://db/words", true, false},
		{"postgres://db:5433/words", true, true},
		{"postgresql:///words?host=/tmp&port=5433", true, true},
		{"dbname=words", false, false},
		{"host=db dbname=words", true, false},
		{"port=5433 dbname=words", false, true},
		{"host = db.example port = 6543 dbname=wordsdb", true, true},
		{"host=\t db port =5433", true, true},
		{"password='a host=x' dbname=words", false, false},
		{"host='' dbname=words", false, false},
		{"application_name='it\\'s' port=5433", false, true},
	}
	for _, tc := range cases {
		host, port := specifiesHostPort(tc.dsn)
		require.Equal(t, tc.host, host, tc.dsn)
		require.Equal(t, tc.port, port, tc.dsn)
	}
}

func TestOpenAppliesPoolAndPings(t *testing.T) {
	pg, err := Open(context.Background(), sqlite.Open("file::memory:"), ConnectOptions{
		MaxOpenConns:    3,
		ConnectAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })

	sqlDB, err := pg.DB.DB()
	require.NoError(t, err)
	require.Equal(t, 3, sqlDB.Stats().MaxOpenConnections)
}

func TestCloseNilIsSafe(t *testing.T) {
	var pg *Postgres
	require.NoError(t, pg.Close())
}
