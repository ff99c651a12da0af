package query

import (
	"context"
	"testing"

	"github.com/aetherxhub/ferridyn-memory/internal/backend"
	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "memories"

func newBackend() *backend.Backend {
	return backend.NewDirect(kv.NewMemoryStore())
}

func TestExecute_ExactLookup_Found(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	require.NoError(t, b.PutItem(ctx, table, kv.Item{"category": "contacts", "key": "toby", "email": "t@e.com"}))

	items, broadened, err := Execute(ctx, b, table, ExactLookup("contacts", "toby"), 10)
	require.NoError(t, err)
	assert.False(t, broadened)
	require.Len(t, items, 1)
	assert.Equal(t, "t@e.com", items[0]["email"])
}

func TestExecute_ExactLookup_MissingBroadensToScan(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	require.NoError(t, b.PutItem(ctx, table, kv.Item{"category": "contacts", "key": "alice"}))

	items, broadened, err := Execute(ctx, b, table, ExactLookup("contacts", "nonexistent"), 10)
	require.NoError(t, err)
	assert.True(t, broadened)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0]["key"])
}

func TestExecute_PartitionScan_Prefix_BroadensWhenEmpty(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	require.NoError(t, b.PutItem(ctx, table, kv.Item{"category": "rust", "key": "lifetimes#basics"}))

	prefix := "ownership"
	items, broadened, err := Execute(ctx, b, table, PartitionScan("rust", &prefix), 10)
	require.NoError(t, err)
	assert.True(t, broadened)
	require.Len(t, items, 1)
}

// P8: an already-unbounded PartitionScan is never broadened further.
func TestExecute_UnboundedScan_NeverBroadens(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	// Category entirely empty: unbounded scan returns nothing, and the
	// executor must not attempt to broaden an already-unbounded scan.
	items, broadened, err := Execute(ctx, b, table, PartitionScan("ghost", nil), 10)
	require.NoError(t, err)
	assert.False(t, broadened)
	assert.Empty(t, items)
}

func TestExecute_IndexLookup(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	idx := kv.IndexInfo{Name: "contacts_email", PartitionSchema: "contacts", IndexKeyName: "email", IndexKeyType: kv.TypeString}
	require.NoError(t, b.CreateIndex(ctx, table, idx))
	require.NoError(t, b.PutItem(ctx, table, kv.Item{"category": "contacts", "key": "toby", "email": "t@e.com"}))

	items, broadened, err := Execute(ctx, b, table, IndexLookup("contacts", "contacts_email", "t@e.com"), 10)
	require.NoError(t, err)
	assert.False(t, broadened)
	require.Len(t, items, 1)
	assert.Equal(t, "toby", items[0]["key"])
}

func TestExecute_Scan_NonEmptyNeverBroadens(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	require.NoError(t, b.PutItem(ctx, table, kv.Item{"category": "notes", "key": "a"}))
	require.NoError(t, b.PutItem(ctx, table, kv.Item{"category": "notes", "key": "b"}))

	items, broadened, err := Execute(ctx, b, table, PartitionScan("notes", nil), 10)
	require.NoError(t, err)
	assert.False(t, broadened)
	assert.Len(t, items, 2)
}

func TestResolvedQuery_IsUnboundedScan(t *testing.T) {
	assert.True(t, PartitionScan("x", nil).IsUnboundedScan())
	prefix := "p"
	assert.False(t, PartitionScan("x", &prefix).IsUnboundedScan())
	assert.False(t, ExactLookup("x", "k").IsUnboundedScan())
}
