package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Config selects an on-disk directory or, when Dir is empty, an in-memory database.
type Config struct {
	Dir string `envconfig:"BADGER_DIR"`
}

// Open opens the database. Badger's own logger is disabled; callers log through logx.
func (c *Config) Open() (*badger.DB, error) {
	opts := badger.DefaultOptions(c.Dir).WithLogger(nil)
	if c.Dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}
