package orders

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
)

// DSN builds a Postgres connection URL from the database settings.
func DSN(cfg config.DatabaseConfig) string {
	host := cfg.Host
	if host == "" {
		host = config.DefaultDatabaseHost
	}
	port := cfg.Port
	if port <= 0 {
		port = config.DefaultDatabasePort
	}

	q := url.Values{}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDatabaseSSLMode
	}
	q.Set("sslmode", sslMode)
	if cfg.ConnectTimeout > 0 {
		seconds := int(cfg.ConnectTimeout / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		q.Set("connect_timeout", strconv.Itoa(seconds))
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else if cfg.User != "" {
		u.User = url.User(cfg.User)
	}
	return u.String()
}

// Open connects to Postgres and verifies the connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: database name is empty", domain.ErrInvalidConfig)
	}

	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = config.DefaultDatabaseConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database %s: %w", domain.ErrConnectivity, cfg.Name, err)
	}
	return db, nil
}
