package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// UserAgent tags every driver connection so gateway traffic is
// identifiable in server logs.
const UserAgent = "cyphergate/1.0"

const (
	defaultConnectTimeout = 10 * time.Second
	defaultMaxLifetime    = 30 * time.Minute
	defaultPoolSize       = 10
)

// Config holds the connection settings for a single Neo4j target.
type Config struct {
	URL      string
	Username string
	Password string

	ConnectTimeout        time.Duration
	MaxConnectionLifetime time.Duration
	MaxPoolSize           int
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.MaxConnectionLifetime <= 0 {
		c.MaxConnectionLifetime = defaultMaxLifetime
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultPoolSize
	}
	return c
}

// Client wraps a Neo4j driver handle. The driver pools bolt connections
// internally; one Client per credential tuple is enough.
type Client struct {
	driver neo4j.DriverWithContext
}

// Connect creates a driver for the given target and verifies
// connectivity before returning. The returned error is raw driver
// error; callers classify it with ClassifyConnectError.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URL, auth, func(c *neo4j.Config) {
		c.SocketConnectTimeout = cfg.ConnectTimeout
		c.MaxConnectionLifetime = cfg.MaxConnectionLifetime
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.UserAgent = UserAgent
	})
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	return &Client{driver: driver}, nil
}

// Verify re-checks connectivity on the existing handle.
func (c *Client) Verify(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close releases the driver and its pooled connections.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Query is a gated query ready for execution.
type Query struct {
	Text       string
	Params     map[string]any
	Database   string // empty selects the server default database
	MaxRecords int
	Write      bool
}

// Result holds the collected rows. Truncated is set when iteration was
// cut at MaxRecords with rows still pending.
type Result struct {
	Rows      []map[string]any
	Truncated bool
}

// Run executes a query in a managed transaction, collecting at most
// q.MaxRecords rows. Iteration stops at the cap rather than collecting
// everything and slicing afterwards, so an uncapped server-side result
// never buffers unbounded rows here.
func (c *Client) Run(ctx context.Context, q Query) (*Result, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: q.Database,
		AccessMode:   accessMode(q.Write),
	})
	defer session.Close(ctx)

	max := q.MaxRecords
	if max <= 0 || max > 1000 {
		max = 1000
	}

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, q.Text, q.Params)
		if err != nil {
			return nil, err
		}

		out := &Result{Rows: make([]map[string]any, 0, 16)}
		for res.Next(ctx) {
			if len(out.Rows) >= max {
				out.Truncated = true
				break
			}
			out.Rows = append(out.Rows, res.Record().AsMap())
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return out, nil
	}

	var raw any
	var err error
	if q.Write {
		raw, err = session.ExecuteWrite(ctx, work)
	} else {
		raw, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, err
	}
	return raw.(*Result), nil
}

func accessMode(write bool) neo4j.AccessMode {
	if write {
		return neo4j.AccessModeWrite
	}
	return neo4j.AccessModeRead
}
