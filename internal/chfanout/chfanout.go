// Package chfanout runs one statement across every ClickHouse node in a
// cluster concurrently, never failing the overall call on a single node's
// error. Grounded on utils/clickhouse_client.rs's ClickHouseClient
// (per-node Pool + tokio::spawn + join_all), ported to goroutines + a
// sync.WaitGroup over a per-node results slice, using the teacher's pkg/sink/clickhouse connection
// style (clickhouse-go/v2's clickhouse.Open).
package chfanout

import (
	"context"
	"fmt"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Config is one ClickHouse cluster: every combination of Hosts x Ports is
// dialed as its own node, matching the original's nested host/port loop.
type Config struct {
	Hosts    []string
	Ports    []int
	User     string
	Password string
	Database string
}

// node is one dialed connection, addressed for logging as "host:port".
type node struct {
	addr string
	conn clickhouse.Conn
}

// Fanout holds one connection per configured (host, port) pair.
type Fanout struct {
	nodes []node
}

// Dial opens one connection per host/port combination in cfg. A node that
// fails to dial is skipped and logged by the caller via the returned
// error slice — Dial itself fails only if every node is unreachable.
func Dial(cfg Config) (*Fanout, []error) {
	var nodes []node
	var dialErrs []error

	for _, host := range cfg.Hosts {
		for _, port := range cfg.Ports {
			addr := fmt.Sprintf("%s:%d", host, port)
			conn, err := clickhouse.Open(&clickhouse.Options{
				Addr: []string{addr},
				Auth: clickhouse.Auth{
					Database: cfg.Database,
					Username: cfg.User,
					Password: cfg.Password,
				},
			})
			if err != nil {
				dialErrs = append(dialErrs, fmt.Errorf("dial %s: %w", addr, err))
				continue
			}
			nodes = append(nodes, node{addr: addr, conn: conn})
		}
	}

	if len(nodes) == 0 {
		dialErrs = append(dialErrs, fmt.Errorf("no ClickHouse nodes configured"))
	}
	return &Fanout{nodes: nodes}, dialErrs
}

// NodeResult is one node's outcome from ExecuteOnAllNodes.
type NodeResult struct {
	Addr string
	Err  error
}

// ExecuteOnAllNodes runs sql (with args) on every node concurrently, one
// goroutine per node, waiting for all to finish before returning — the
// Go equivalent of tokio::spawn + future::join_all. A failure on one node
// never stops the others or the overall call; callers inspect the
// returned per-node results to decide what to log or retry.
func (f *Fanout) ExecuteOnAllNodes(ctx context.Context, sql string, args ...interface{}) []NodeResult {
	results := make([]NodeResult, len(f.nodes))

	var wg sync.WaitGroup
	for i, n := range f.nodes {
		wg.Add(1)
		go func(i int, n node) {
			defer wg.Done()
			err := n.conn.Exec(ctx, sql, args...)
			results[i] = NodeResult{Addr: n.addr, Err: err}
		}(i, n)
	}
	wg.Wait()

	return results
}

// Close closes every node's connection.
func (f *Fanout) Close() error {
	var firstErr error
	for _, n := range f.nodes {
		if err := n.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
