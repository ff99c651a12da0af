package kv

import (
	"context"
	"fmt"
)

// Store is the full operation set the backend façade delegates to,
// satisfied by both MemoryStore (the in-process direct variant) and the
// networked client in internal/backend. Every operation is parameterized
// by table so a single Store can back more than one namespace.
type Store interface {
	PutItem(ctx context.Context, table string, doc Item) error
	GetItem(ctx context.Context, table, category, key string) (Item, bool, error)
	Query(ctx context.Context, table, category string, prefix *string, limit int) ([]Item, error)
	DeleteItem(ctx context.Context, table, category, key string) error
	ListPartitionKeys(ctx context.Context, table string, limit int) ([]string, error)
	ListSortKeyPrefixes(ctx context.Context, table, category string, limit int) ([]string, error)

	CreateSchema(ctx context.Context, table string, schema PartitionSchemaInfo) error
	DescribeSchema(ctx context.Context, table, prefix string) (PartitionSchemaInfo, error)
	ListSchemas(ctx context.Context, table string) ([]PartitionSchemaInfo, error)
	DropSchema(ctx context.Context, table, prefix string) error

	CreateIndex(ctx context.Context, table string, info IndexInfo) error
	ListIndexes(ctx context.Context, table string) ([]IndexInfo, error)
	DescribeIndex(ctx context.Context, table, name string) (IndexInfo, error)
	DropIndex(ctx context.Context, table, name string) error
	QueryIndex(ctx context.Context, table, indexName string, keyValue any, limit int) ([]Item, error)
}

// ErrInvalidItem is returned when a write doesn't carry the mandatory
// category/key pair. The backend façade maps it to merr.KindInvalidParams.
type ErrInvalidItem struct {
	Reason string
}

func (e *ErrInvalidItem) Error() string {
	return fmt.Sprintf("invalid item: %s", e.Reason)
}
