package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jpillora/backoff"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 5432
)

// ConnectOptions layers explicit overrides on top of a connection string.
// Non-empty override fields win over whatever DatabaseURL specifies.
type ConnectOptions struct {
	DatabaseURL string
	Host        string
	Port        int
	Name        string
	User        string
	Password    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// ConnectAttempts bounds the startup ping retries. Zero means 5.
	ConnectAttempts int
	Logger          *slog.Logger
}

// Postgres wraps DB connectivity. The pool behind DB is shared by every
// request of the owning process.
type Postgres struct {
	DB *gorm.DB
}

// ResolveConnConfig parses DatabaseURL and applies overrides. Host defaults
// to the loopback address and port to 5432 when neither the string nor the
// overrides supply them.
func ResolveConnConfig(opts ConnectOptions) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres connection string: %w", err)
	}
	hostSet, portSet := specifiesHostPort(opts.DatabaseURL)

	if host := strings.TrimSpace(opts.Host); host != "" {
		setHost(cfg, host)
		hostSet = true
	}
	if opts.Port > 0 {
		setPort(cfg, uint16(opts.Port))
		portSet = true
	}
	if opts.Name != "" {
		cfg.Database = opts.Name
	}
	if opts.User != "" {
		cfg.User = opts.User
	}
	if opts.Password != "" {
		cfg.Password = opts.Password
	}

	if !hostSet {
		setHost(cfg, defaultHost)
	}
	if !portSet {
		setPort(cfg, defaultPort)
	}
	return cfg, nil
}

// Connect resolves the connection settings and opens a bounded pool.
func Connect(ctx context.Context, opts ConnectOptions) (*Postgres, error) {
	connConfig, err := ResolveConnConfig(opts)
	if err != nil {
		return nil, err
	}
	sqlDB := stdlib.OpenDB(*connConfig)
	return Open(ctx, postgres.New(postgres.Config{Conn: sqlDB}), opts)
}

// Open builds the gorm handle over any dialector, applies pool limits and
// waits until the database answers a ping.
func Open(ctx context.Context, dialector gorm.Dialector, opts ConnectOptions) (*Postgres, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := pingWithRetry(ctx, db, opts); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func pingWithRetry(ctx context.Context, db *gorm.DB, opts ConnectOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = 5
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	b := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := sqlDB.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt >= attempts || ctx.Err() != nil {
			return fmt.Errorf("ping postgres after %d attempts: %w", attempt, err)
		}

		wait := b.Duration()
		logger.Warn("postgres ping failed; retrying",
			"event", "postgres_ping_retry",
			"module", "internal/platform/db",
			"layer", "platform",
			"attempt", attempt,
			"retry_in", wait.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-time.After(wait):
		}
	}
}

func setHost(cfg *pgx.ConnConfig, host string) {
	cfg.Host = host
	for _, fb := range cfg.Fallbacks {
		fb.Host = host
	}
}

func setPort(cfg *pgx.ConnConfig, port uint16) {
	cfg.Port = port
	for _, fb := range cfg.Fallbacks {
		fb.Port = port
	}
}

// specifiesHostPort reports whether the raw connection string names a host
// or port itself, as opposed to pgx filling in its own defaults.
func specifiesHostPort(dsn string) (bool, bool) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return false, false
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return false, false
		}
		query := u.Query()
		hostSet := u.Hostname() != "" || query.Get("host") != ""
		portSet := u.Port() != "" || query.Get("port") != ""
		return hostSet, portSet
	}

	var hostSet, portSet bool
	for key, value := range keywordValues(dsn) {
		if value == "" {
			continue
		}
		switch key {
		case "host", "hostaddr":
			hostSet = true
		case "port":
			portSet = true
		}
	}
	return hostSet, portSet
}

// keywordValues splits a libpq keyword/value string. Whitespace around "="
// is allowed and values may be single-quoted with backslash escapes.
// Tokenising stops at the first malformed pair.
func keywordValues(dsn string) map[string]string {
	pairs := make(map[string]string)
	s := dsn
	for {
		s = strings.TrimLeft(s, " \t\n\r\v\f")
		if s == "" {
			return pairs
		}
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return pairs
		}
		key := strings.TrimSpace(s[:eq])
		if key == "" || strings.ContainsAny(key, " \t\n\r\v\f") {
			return pairs
		}
		s = strings.TrimLeft(s[eq+1:], " \t\n\r\v\f")

		var value strings.Builder
		if strings.HasPrefix(s, "'") {
			s = s[1:]
			closed := false
			for len(s) > 0 {
				c := s[0]
				s = s[1:]
				if c == '\\' && len(s) > 0 {
					value.WriteByte(s[0])
					s = s[1:]
					continue
				}
				if c == '\'' {
					closed = true
					break
				}
				value.WriteByte(c)
			}
			if !closed {
				return pairs
			}
		} else {
			for len(s) > 0 && !strings.ContainsRune(" \t\n\r\v\f", rune(s[0])) {
				c := s[0]
				s = s[1:]
				if c == '\\' && len(s) > 0 {
					c = s[0]
					s = s[1:]
				}
				value.WriteByte(c)
			}
		}
		pairs[key] = value.String()
	}
}
