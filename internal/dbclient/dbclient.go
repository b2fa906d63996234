// Package dbclient issues queries against the database inside the container
// under test. Every call opens a fresh connection and closes it again, so
// each query observes the server exactly the way a one-shot client
// invocation would, with no pooled state surviving between scenarios.
package dbclient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// Client is bound to the fixed host address the container publishes.
type Client struct {
	host string
	port int
}

func New(host string, port int) *Client {
	return &Client{host: host, port: port}
}

// Credentials are passed per call rather than fixed at construction, so a
// password scraped from container logs can be used against the same client.
type Credentials struct {
	User     string
	Password string
	Database string
}

// dsn renders the driver DSN for one call.
func (c *Client) dsn(creds Credentials) string {
	cfg := mysql.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.host, strconv.Itoa(c.port))
	cfg.DBName = creds.Database
	cfg.Timeout = dialTimeout
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	return cfg.FormatDSN()
}

func (c *Client) open(creds Credentials) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.dsn(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	// One short-lived connection per call.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Minute)

	return db, nil
}

// Ping dials the server and authenticates. This is the trivial-query probe
// the readiness poll uses.
func (c *Client) Ping(ctx context.Context, creds Credentials) error {
	db, err := c.open(creds)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// SelectValue runs a query expected to return a single scalar and returns it
// as a string. A NULL scalar comes back as the empty string.
func (c *Client) SelectValue(ctx context.Context, creds Credentials, query string, args ...any) (string, error) {
	db, err := c.open(creds)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var value sql.NullString
	if err := db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return "", fmt.Errorf("query %q failed: %w", query, err)
	}
	return value.String, nil
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, creds Credentials, query string, args ...any) error {
	db, err := c.open(creds)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("statement %q failed: %w", query, err)
	}
	return nil
}

// IsAccessDenied reports whether err is the server refusing the credentials
// or the client's host: 1044 ER_DBACCESS_DENIED_ERROR, 1045
// ER_ACCESS_DENIED_ERROR, 1130 ER_HOST_NOT_PRIVILEGED.
func IsAccessDenied(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1130:
			return true
		}
	}
	return false
}
