// Package backend implements the memory engine's backend façade: a
// uniform operation set over one of two transports — a networked client
// talking to the real engine over a Unix domain socket, or an in-process
// handle used by tests and as the CLI/MCP fallback when no daemon socket
// is reachable — with every returned error normalized into
// the merr.MemoryError taxonomy.
//
// The two transports are unified behind the kv.Store interface rather
// than an explicit tagged enum: Go's interfaces already give us "exactly
// one of these shapes, chosen at construction, invisible to callers",
// which is what the tagged-variant design note in SPEC_FULL.md §9 asks
// for. Backend itself adds only the error-mapping layer on top.
package backend

import (
	"context"
	"errors"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/merr"
)

// Backend is the façade surfaces and the schema/NL/query/lifecycle
// subsystems depend on. It is cheap to copy: copying a Backend shares the
// underlying store (and, for the networked variant, its one connection
// and mutex), matching the "Clone shares the client" requirement in
// SPEC_FULL.md §5.
type Backend struct {
	store kv.Store
}

// NewDirect wraps an in-process store (kv.MemoryStore) as a Backend.
// Tests use it, and cmd/fmemory and cmd/fmemory-mcp fall back to it when
// the daemon socket is unreachable.
func NewDirect(store kv.Store) *Backend {
	return &Backend{store: store}
}

// NewNetworked wraps a connected Client as a Backend.
func NewNetworked(client *Client) *Backend {
	return &Backend{store: client}
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var notFoundSchema *kv.ErrSchemaNotFound
	if errors.As(err, &notFoundSchema) {
		return merr.Schema(op, err)
	}
	var notFoundIndex *kv.ErrIndexNotFound
	if errors.As(err, &notFoundIndex) {
		return merr.Index(op, err)
	}
	var invalid *kv.ErrInvalidItem
	if errors.As(err, &invalid) {
		return merr.InvalidParams(op, err)
	}
	var unavailable *ErrServerUnavailable
	if errors.As(err, &unavailable) {
		return merr.ServerUnavailable(op, err)
	}
	return merr.Server(op, err)
}

func (b *Backend) PutItem(ctx context.Context, table string, doc kv.Item) error {
	return classify("put item", b.store.PutItem(ctx, table, doc))
}

func (b *Backend) GetItem(ctx context.Context, table, category, key string) (kv.Item, bool, error) {
	item, ok, err := b.store.GetItem(ctx, table, category, key)
	if err != nil {
		return nil, false, classify("get item", err)
	}
	return item, ok, nil
}

func (b *Backend) Query(ctx context.Context, table, category string, prefix *string, limit int) ([]kv.Item, error) {
	items, err := b.store.Query(ctx, table, category, prefix, limit)
	if err != nil {
		return nil, classify("query", err)
	}
	return items, nil
}

func (b *Backend) DeleteItem(ctx context.Context, table, category, key string) error {
	return classify("delete item", b.store.DeleteItem(ctx, table, category, key))
}

func (b *Backend) ListPartitionKeys(ctx context.Context, table string, limit int) ([]string, error) {
	out, err := b.store.ListPartitionKeys(ctx, table, limit)
	if err != nil {
		return nil, classify("list partition keys", err)
	}
	return out, nil
}

func (b *Backend) ListSortKeyPrefixes(ctx context.Context, table, category string, limit int) ([]string, error) {
	out, err := b.store.ListSortKeyPrefixes(ctx, table, category, limit)
	if err != nil {
		return nil, classify("list sort key prefixes", err)
	}
	return out, nil
}

func (b *Backend) CreateSchema(ctx context.Context, table string, schema kv.PartitionSchemaInfo) error {
	return classify("create schema", b.store.CreateSchema(ctx, table, schema))
}

func (b *Backend) DescribeSchema(ctx context.Context, table, prefix string) (kv.PartitionSchemaInfo, error) {
	s, err := b.store.DescribeSchema(ctx, table, prefix)
	if err != nil {
		return kv.PartitionSchemaInfo{}, classify("describe schema", err)
	}
	return s, nil
}

func (b *Backend) ListSchemas(ctx context.Context, table string) ([]kv.PartitionSchemaInfo, error) {
	out, err := b.store.ListSchemas(ctx, table)
	if err != nil {
		return nil, classify("list schemas", err)
	}
	return out, nil
}

func (b *Backend) DropSchema(ctx context.Context, table, prefix string) error {
	return classify("drop schema", b.store.DropSchema(ctx, table, prefix))
}

func (b *Backend) CreateIndex(ctx context.Context, table string, info kv.IndexInfo) error {
	return classify("create index", b.store.CreateIndex(ctx, table, info))
}

func (b *Backend) ListIndexes(ctx context.Context, table string) ([]kv.IndexInfo, error) {
	out, err := b.store.ListIndexes(ctx, table)
	if err != nil {
		return nil, classify("list indexes", err)
	}
	return out, nil
}

func (b *Backend) DescribeIndex(ctx context.Context, table, name string) (kv.IndexInfo, error) {
	info, err := b.store.DescribeIndex(ctx, table, name)
	if err != nil {
		return kv.IndexInfo{}, classify("describe index", err)
	}
	return info, nil
}

func (b *Backend) DropIndex(ctx context.Context, table, name string) error {
	return classify("drop index", b.store.DropIndex(ctx, table, name))
}

func (b *Backend) QueryIndex(ctx context.Context, table, indexName string, keyValue any, limit int) ([]kv.Item, error) {
	items, err := b.store.QueryIndex(ctx, table, indexName, keyValue, limit)
	if err != nil {
		return nil, classify("query index", err)
	}
	return items, nil
}
