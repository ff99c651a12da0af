package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "memories"

func TestMemoryStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.PutItem(ctx, table, Item{"category": "notes", "key": "a", "content": "hello"})
	require.NoError(t, err)

	got, ok, err := s.GetItem(ctx, table, "notes", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", got["content"])

	_, ok, err = s.GetItem(ctx, table, "notes", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_PutItem_RejectsMissingKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	assert.Error(t, s.PutItem(ctx, table, Item{"key": "a"}))
	assert.Error(t, s.PutItem(ctx, table, Item{"category": "notes"}))
}

func TestMemoryStore_PutItem_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.PutItem(ctx, table, Item{"category": "notes", "key": "a", "content": "v1"}))
	require.NoError(t, s.PutItem(ctx, table, Item{"category": "notes", "key": "a", "content": "v2"}))

	got, ok, err := s.GetItem(ctx, table, "notes", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got["content"])
}

func TestMemoryStore_Query_PrefixAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, k := range []string{"b#2", "a#1", "b#1", "c#1"} {
		require.NoError(t, s.PutItem(ctx, table, Item{"category": "notes", "key": k}))
	}

	prefix := "b#"
	got, err := s.Query(ctx, table, "notes", &prefix, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b#1", got[0]["key"])
	assert.Equal(t, "b#2", got[1]["key"])
}

func TestMemoryStore_Query_LimitTruncates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.PutItem(ctx, table, Item{"category": "notes", "key": k}))
	}

	got, err := s.Query(ctx, table, "notes", nil, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["key"])
	assert.Equal(t, "b", got[1]["key"])
}

func TestMemoryStore_DeleteItem(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.PutItem(ctx, table, Item{"category": "notes", "key": "a"}))
	require.NoError(t, s.DeleteItem(ctx, table, "notes", "a"))

	_, ok, err := s.GetItem(ctx, table, "notes", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting an absent key is not an error
	assert.NoError(t, s.DeleteItem(ctx, table, "notes", "a"))
}

func TestMemoryStore_ListPartitionKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.PutItem(ctx, table, Item{"category": "notes", "key": "a"}))
	require.NoError(t, s.PutItem(ctx, table, Item{"category": "contacts", "key": "a"}))
	require.NoError(t, s.PutItem(ctx, table, Item{"category": "notes", "key": "b"}))

	got, err := s.ListPartitionKeys(ctx, table, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts", "notes"}, got)
}

func TestMemoryStore_ListSortKeyPrefixes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.PutItem(ctx, table, Item{"category": "project", "key": "goals#1"}))
	require.NoError(t, s.PutItem(ctx, table, Item{"category": "project", "key": "goals#2"}))
	require.NoError(t, s.PutItem(ctx, table, Item{"category": "project", "key": "status"}))

	got, err := s.ListSortKeyPrefixes(ctx, table, "project", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"goals", "status"}, got)
}

func TestMemoryStore_SchemaLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.DescribeSchema(ctx, table, "notes")
	require.Error(t, err)
	var notFound *ErrSchemaNotFound
	assert.ErrorAs(t, err, &notFound)

	schema := PartitionSchemaInfo{Prefix: "notes", Description: "freeform notes"}
	require.NoError(t, s.CreateSchema(ctx, table, schema))
	assert.Error(t, s.CreateSchema(ctx, table, schema), "duplicate create should fail")

	got, err := s.DescribeSchema(ctx, table, "notes")
	require.NoError(t, err)
	assert.Equal(t, "freeform notes", got.Description)

	all, err := s.ListSchemas(ctx, table)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, s.DropSchema(ctx, table, "notes"))
	_, err = s.DescribeSchema(ctx, table, "notes")
	assert.Error(t, err)
}

func TestMemoryStore_IndexLifecycleAndQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.PutItem(ctx, table, Item{"category": "contacts", "key": "alice", "company": "acme"}))
	require.NoError(t, s.PutItem(ctx, table, Item{"category": "contacts", "key": "bob", "company": "acme"}))
	require.NoError(t, s.PutItem(ctx, table, Item{"category": "contacts", "key": "carol", "company": "other"}))

	info := IndexInfo{
		Name:            IndexNameFor("contacts", "company"),
		PartitionSchema: "contacts",
		IndexKeyName:    "company",
		IndexKeyType:    TypeString,
	}
	require.NoError(t, s.CreateIndex(ctx, table, info))
	assert.Error(t, s.CreateIndex(ctx, table, info))

	got, err := s.QueryIndex(ctx, table, "contacts_company", "acme", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0]["key"])
	assert.Equal(t, "bob", got[1]["key"])

	_, err = s.DescribeIndex(ctx, table, "contacts_company")
	require.NoError(t, err)

	require.NoError(t, s.DropIndex(ctx, table, "contacts_company"))
	_, err = s.DescribeIndex(ctx, table, "contacts_company")
	var notFound *ErrIndexNotFound
	assert.ErrorAs(t, err, &notFound)
}
