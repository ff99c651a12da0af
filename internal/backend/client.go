package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
)

// wireRequest and wireResponse are the line-delimited JSON frames
// exchanged with the backend daemon over a Unix domain socket. This is a
// minimal, purpose-built protocol — the real engine's wire format is an
// external collaborator (see SPEC_FULL.md §1); Client only needs to
// satisfy kv.Store's contract against whatever speaks this frame shape.
type wireRequest struct {
	Op    string          `json:"op"`
	Table string          `json:"table"`
	Args  json.RawMessage `json:"args,omitempty"`
}

type wireResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// ErrServerUnavailable reports a transport-level failure — connection
// refused, dial timeout, broken pipe — as opposed to a request the server
// understood and rejected. The backend façade maps it to
// merr.KindServerUnavailable.
type ErrServerUnavailable struct {
	Path string
	Err  error
}

func (e *ErrServerUnavailable) Error() string {
	return fmt.Sprintf("backend unavailable at %s: %v", e.Path, e.Err)
}

func (e *ErrServerUnavailable) Unwrap() error { return e.Err }

// Client is the networked backend variant: a single Unix domain socket
// connection, serialized behind one mutex per SPEC_FULL.md §5 — no
// concurrent in-flight requests, the mutex is held only across one
// request/response round trip, never across an LLM call or a composite
// lifecycle operation. Grounded on the daemon-client pattern in beads'
// internal/rpc/client.go (bufio-framed JSON over a Unix socket, a single
// guarded connection that self-reports unavailability rather than
// retrying silently).
type Client struct {
	mu         sync.Mutex
	conn       net.Conn
	rw         *bufio.ReadWriter
	socketPath string
}

// DialClient connects to socketPath within timeout. A dial failure is
// reported as *ErrServerUnavailable so callers can distinguish "no
// daemon running" from "daemon rejected the request".
func DialClient(ctx context.Context, socketPath string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, &ErrServerUnavailable{Path: socketPath, Err: err}
	}
	return &Client{
		conn:       conn,
		rw:         bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		socketPath: socketPath,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, op, table string, args any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	} else {
		_ = c.conn.SetDeadline(time.Time{})
	}

	var rawArgs json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("backend: encode %s args: %w", op, err)
		}
		rawArgs = b
	}

	req := wireRequest{Op: op, Table: table, Args: rawArgs}
	enc, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("backend: encode %s request: %w", op, err)
	}
	if _, err := c.rw.Write(append(enc, '\n')); err != nil {
		return &ErrServerUnavailable{Path: c.socketPath, Err: err}
	}
	if err := c.rw.Flush(); err != nil {
		return &ErrServerUnavailable{Path: c.socketPath, Err: err}
	}

	line, err := c.rw.ReadBytes('\n')
	if err != nil {
		return &ErrServerUnavailable{Path: c.socketPath, Err: err}
	}

	var resp wireResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("backend: decode %s response: %w", op, err)
	}
	if !resp.OK {
		return fmt.Errorf("%s", resp.Error)
	}
	if out != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("backend: decode %s result: %w", op, err)
		}
	}
	return nil
}

func (c *Client) PutItem(ctx context.Context, table string, doc kv.Item) error {
	return c.call(ctx, "put_item", table, doc, nil)
}

type getItemArgs struct {
	Category string `json:"category"`
	Key      string `json:"key"`
}

type getItemResult struct {
	Found bool     `json:"found"`
	Item  kv.Item `json:"item,omitempty"`
}

func (c *Client) GetItem(ctx context.Context, table, category, key string) (kv.Item, bool, error) {
	var res getItemResult
	if err := c.call(ctx, "get_item", table, getItemArgs{Category: category, Key: key}, &res); err != nil {
		return nil, false, err
	}
	if !res.Found {
		return nil, false, nil
	}
	return res.Item, true, nil
}

type queryArgs struct {
	Category string  `json:"category"`
	Prefix   *string `json:"prefix,omitempty"`
	Limit    int     `json:"limit"`
}

func (c *Client) Query(ctx context.Context, table, category string, prefix *string, limit int) ([]kv.Item, error) {
	var items []kv.Item
	err := c.call(ctx, "query", table, queryArgs{Category: category, Prefix: prefix, Limit: limit}, &items)
	return items, err
}

type deleteItemArgs struct {
	Category string `json:"category"`
	Key      string `json:"key"`
}

func (c *Client) DeleteItem(ctx context.Context, table, category, key string) error {
	return c.call(ctx, "delete_item", table, deleteItemArgs{Category: category, Key: key}, nil)
}

type limitArgs struct {
	Limit int `json:"limit"`
}

func (c *Client) ListPartitionKeys(ctx context.Context, table string, limit int) ([]string, error) {
	var out []string
	err := c.call(ctx, "list_partition_keys", table, limitArgs{Limit: limit}, &out)
	return out, err
}

type listPrefixesArgs struct {
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

func (c *Client) ListSortKeyPrefixes(ctx context.Context, table, category string, limit int) ([]string, error) {
	var out []string
	err := c.call(ctx, "list_sort_key_prefixes", table, listPrefixesArgs{Category: category, Limit: limit}, &out)
	return out, err
}

func (c *Client) CreateSchema(ctx context.Context, table string, schema kv.PartitionSchemaInfo) error {
	return c.call(ctx, "create_schema", table, schema, nil)
}

type describeSchemaArgs struct {
	Prefix string `json:"prefix"`
}

func (c *Client) DescribeSchema(ctx context.Context, table, prefix string) (kv.PartitionSchemaInfo, error) {
	var out kv.PartitionSchemaInfo
	err := c.call(ctx, "describe_schema", table, describeSchemaArgs{Prefix: prefix}, &out)
	return out, err
}

func (c *Client) ListSchemas(ctx context.Context, table string) ([]kv.PartitionSchemaInfo, error) {
	var out []kv.PartitionSchemaInfo
	err := c.call(ctx, "list_schemas", table, nil, &out)
	return out, err
}

func (c *Client) DropSchema(ctx context.Context, table, prefix string) error {
	return c.call(ctx, "drop_schema", table, describeSchemaArgs{Prefix: prefix}, nil)
}

func (c *Client) CreateIndex(ctx context.Context, table string, info kv.IndexInfo) error {
	return c.call(ctx, "create_index", table, info, nil)
}

func (c *Client) ListIndexes(ctx context.Context, table string) ([]kv.IndexInfo, error) {
	var out []kv.IndexInfo
	err := c.call(ctx, "list_indexes", table, nil, &out)
	return out, err
}

type describeIndexArgs struct {
	Name string `json:"name"`
}

func (c *Client) DescribeIndex(ctx context.Context, table, name string) (kv.IndexInfo, error) {
	var out kv.IndexInfo
	err := c.call(ctx, "describe_index", table, describeIndexArgs{Name: name}, &out)
	return out, err
}

func (c *Client) DropIndex(ctx context.Context, table, name string) error {
	return c.call(ctx, "drop_index", table, describeIndexArgs{Name: name}, nil)
}

type queryIndexArgs struct {
	IndexName string `json:"index_name"`
	KeyValue  any    `json:"key_value"`
	Limit     int    `json:"limit"`
}

func (c *Client) QueryIndex(ctx context.Context, table, indexName string, keyValue any, limit int) ([]kv.Item, error) {
	var items []kv.Item
	err := c.call(ctx, "query_index", table, queryIndexArgs{IndexName: indexName, KeyValue: keyValue, Limit: limit}, &items)
	return items, err
}
