package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase opens and pings a PostgreSQL connection pool.
// The schema is provisioned out of band; nothing is created here.
func SetupDatabase(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// Connector opens the shared database handle on first use and remembers the
// outcome. A failed first attempt is never retried: every later caller gets
// the same error until the process restarts.
type Connector struct {
	dsn  string
	open func(dsn string) (*sqlx.DB, error)

	mu        sync.Mutex
	attempted bool
	closed    bool
	db        *sqlx.DB
	err       error
}

// ErrConnectorClosed is returned by DB after Close
var ErrConnectorClosed = errors.New("database connector closed")

// NewConnector creates a lazy connector for the given DSN
func NewConnector(dsn string) *Connector {
	return &Connector{dsn: dsn, open: SetupDatabase}
}

// DB returns the shared handle, connecting on the first call
func (c *Connector) DB() (*sqlx.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectorClosed
	}
	if !c.attempted {
		c.attempted = true
		c.db, c.err = c.open(c.dsn)
	}
	return c.db, c.err
}

// Close releases the pool if one was opened
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.db == nil {
		return nil
	}
	db := c.db
	c.db = nil
	return db.Close()
}
