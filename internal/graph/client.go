package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/codescope/codescope-go/internal/config"
)

// Client wraps the Neo4j driver with connection tracking and query helpers.
// All write operations report success as a bool and all read operations
// return empty results while the backend is unreachable, so callers can
// keep working against a degraded graph instead of branching on errors.
type Client struct {
	cfg    config.GraphConfig
	logger *slog.Logger

	mu        sync.Mutex
	driver    neo4j.DriverWithContext
	connected atomic.Bool
}

// NewClient creates a client without dialing. Call Connect before use;
// every operation tolerates a client that never connected.
func NewClient(cfg config.GraphConfig) *Client {
	return &Client{
		cfg:    cfg,
		logger: slog.Default().With("component", "graph"),
	}
}

// Connect establishes connectivity to the graph backend. It is idempotent
// and retries once before giving up. A false return leaves the client in
// the disconnected state where writes no-op and reads come back empty.
func (c *Client) Connect(ctx context.Context) bool {
	if c.connected.Load() {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected.Load() {
		return true
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				c.logger.Warn("graph connect aborted", "error", ctx.Err())
				return false
			}
		}
		if err := c.dial(ctx); err != nil {
			lastErr = err
			c.logger.Warn("graph connect attempt failed",
				"attempt", attempt,
				"uri", c.cfg.URI,
				"error", err)
			continue
		}
		c.connected.Store(true)
		c.logger.Info("graph client connected",
			"uri", c.cfg.URI,
			"database", c.cfg.Database,
			"max_pool_size", c.cfg.MaxConnections)
		return true
	}

	c.logger.Warn("graph backend unreachable, continuing disconnected", "error", lastErr)
	return false
}

// dial creates the driver if needed and verifies connectivity.
// Caller holds c.mu.
func (c *Client) dial(ctx context.Context) error {
	if c.cfg.URI == "" || c.cfg.Username == "" {
		return fmt.Errorf("graph credentials missing: uri=%q user=%q", c.cfg.URI, c.cfg.Username)
	}

	if c.driver == nil {
		driver, err := neo4j.NewDriverWithContext(c.cfg.URI,
			neo4j.BasicAuth(c.cfg.Username, c.cfg.Password, ""),
			func(config *neo4j.Config) {
				config.MaxConnectionPoolSize = c.cfg.MaxConnections
				config.ConnectionAcquisitionTimeout = 60 * time.Second
				config.MaxConnectionLifetime = 3600 * time.Second
				config.ConnectionLivenessCheckTimeout = 5 * time.Second
				config.SocketConnectTimeout = 5 * time.Second
				config.SocketKeepalive = true
			})
		if err != nil {
			return fmt.Errorf("failed to create neo4j driver: %w", err)
		}
		c.driver = driver
	}

	verifyCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnTimeout)
	defer cancel()
	if err := c.driver.VerifyConnectivity(verifyCtx); err != nil {
		return fmt.Errorf("failed to connect to neo4j at %s: %w", c.cfg.URI, err)
	}
	return nil
}

// Connected reports whether the last Connect succeeded.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Close closes the driver connection.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected.Store(false)
	if c.driver == nil {
		return nil
	}
	driver := c.driver
	c.driver = nil
	if err := driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close neo4j driver: %w", err)
	}
	c.logger.Info("graph client closed")
	return nil
}

// Health reverifies connectivity and reports graph size. A disconnected
// backend yields zero counts, never an error.
func (c *Client) Health(ctx context.Context) Health {
	if !c.connected.Load() {
		return Health{}
	}
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		c.logger.Warn("graph health check failed", "error", err)
		c.connected.Store(false)
		return Health{}
	}

	nodes, err := c.queryCount(ctx, "MATCH (n) RETURN count(n) as count", nil)
	if err != nil {
		c.logger.Warn("node count query failed", "error", err)
		return Health{Connected: true}
	}
	rels, err := c.queryCount(ctx, "MATCH ()-[r]->() RETURN count(r) as count", nil)
	if err != nil {
		c.logger.Warn("relationship count query failed", "error", err)
		return Health{Connected: true, Nodes: nodes}
	}

	return Health{Connected: true, Nodes: nodes, Relationships: rels}
}

// opContext applies the per-operation query timeout.
func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.QueryTimeout)
}

// queryCount runs a single-row count query and extracts the count column.
func (c *Client) queryCount(ctx context.Context, query string, params map[string]any) (int64, error) {
	queryCtx, cancel := c.opContext(ctx)
	defer cancel()

	result, err := neo4j.ExecuteQuery(queryCtx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.cfg.Database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}

	if len(result.Records) == 0 {
		return 0, nil
	}
	count, ok := result.Records[0].Get("count")
	if !ok {
		return 0, fmt.Errorf("count query returned no count column")
	}
	countInt, ok := count.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected type for count: %T (expected int64)", count)
	}
	return countInt, nil
}

// ExecuteRead executes a read-routed Cypher query and returns rows as maps.
// Disconnected clients return no rows and no error.
func (c *Client) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if !c.connected.Load() {
		return nil, nil
	}

	queryCtx, cancel := c.opContext(ctx)
	defer cancel()

	result, err := neo4j.ExecuteQuery(queryCtx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.cfg.Database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("read query failed: %w", err)
	}

	var records []map[string]any
	for _, record := range result.Records {
		records = append(records, record.AsMap())
	}
	return records, nil
}
