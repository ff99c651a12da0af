package schema

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aetherxhub/ferridyn-memory/internal/catalog"
	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = "memories"

func newManager() (*Manager, *kv.MemoryStore) {
	store := kv.NewMemoryStore()
	return New(store, table, nil), store
}

func TestManager_HasSchema_TranslatesNotFound(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	has, err := m.HasSchema(ctx, "notes")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, m.CreateSchemaWithIndexes(ctx, "notes", "notes", nil, nil, false))
	has, err = m.HasSchema(ctx, "notes")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestManager_GetSchema_ReturnsNilWhenAbsent(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	s, err := m.GetSchema(ctx, "notes")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestManager_CreateSchemaWithIndexes_CreatesOnlyDeclaredAttributes(t *testing.T) {
	m, store := newManager()
	ctx := context.Background()

	attrs := []kv.AttributeDef{
		{Name: "name", Type: kv.TypeString},
		{Name: "email", Type: kv.TypeString},
	}
	// "phone" is suggested but not declared; must be silently skipped.
	err := m.CreateSchemaWithIndexes(ctx, "contacts", "contacts", attrs, []string{"name", "email", "phone"}, false)
	require.NoError(t, err)

	indexes, err := store.ListIndexes(ctx, table)
	require.NoError(t, err)
	require.Len(t, indexes, 2)

	names := map[string]bool{}
	for _, idx := range indexes {
		names[idx.Name] = true
	}
	assert.True(t, names["contacts_name"])
	assert.True(t, names["contacts_email"])
	assert.False(t, names["contacts_phone"])
}

func TestManager_CreateCustomSchema_PreservesKeyFormat(t *testing.T) {
	m, store := newManager()
	ctx := context.Background()

	info := kv.PartitionSchemaInfo{
		Prefix:      "recipes",
		Description: "cooking recipes",
		Attributes: []kv.AttributeDef{
			{Name: "dish", Type: kv.TypeString, Required: true},
			{Name: "step", Type: kv.TypeNumber, Required: true},
		},
		Validate:      true,
		SortKeyFormat: "{dish}#{step}",
		Segments: []kv.SegmentDef{
			{Name: "dish", Description: "dish name"},
			{Name: "step", Description: "step number"},
		},
		Examples: []string{"lasagna#1"},
	}
	require.NoError(t, m.CreateCustomSchema(ctx, info, []string{"dish"}))

	stored, err := store.DescribeSchema(ctx, table, "recipes")
	require.NoError(t, err)
	assert.Equal(t, "{dish}#{step}", stored.SortKeyFormat)
	assert.Equal(t, info.Segments, stored.Segments)
	assert.Equal(t, info.Examples, stored.Examples)
	assert.True(t, stored.Validate)

	indexes, err := store.ListIndexes(ctx, table)
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Equal(t, "recipes_dish", indexes[0].Name)
}

func TestManager_FindIndex(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	attrs := []kv.AttributeDef{{Name: "status", Type: kv.TypeString}}
	require.NoError(t, m.CreateSchemaWithIndexes(ctx, "issues", "issues", attrs, []string{"status"}, false))

	idx, err := m.FindIndex(ctx, "issues", "status")
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, "issues_status", idx.Name)

	missing, err := m.FindIndex(ctx, "issues", "severity")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestManager_EnsurePredefinedSchemas_CreatesAllNineWithIndexes(t *testing.T) {
	m, store := newManager()
	ctx := context.Background()

	require.NoError(t, m.EnsurePredefinedSchemas(ctx))

	schemas, err := store.ListSchemas(ctx, table)
	require.NoError(t, err)
	assert.Len(t, schemas, len(catalog.Definitions))

	for _, d := range catalog.Definitions {
		for _, attr := range d.IndexedAttributes {
			_, err := store.DescribeIndex(ctx, table, kv.IndexNameFor(d.Name, attr))
			assert.NoError(t, err, "expected index %s_%s", d.Name, attr)
		}
	}
}

func TestManager_EnsurePredefinedSchemas_IsIdempotent(t *testing.T) {
	m, store := newManager()
	ctx := context.Background()

	require.NoError(t, m.EnsurePredefinedSchemas(ctx))
	before, err := store.ListSchemas(ctx, table)
	require.NoError(t, err)

	require.NoError(t, m.EnsurePredefinedSchemas(ctx))
	after, err := store.ListSchemas(ctx, table)
	require.NoError(t, err)

	assert.Equal(t, len(before), len(after))
}

// countingStore wraps a MemoryStore to count CreateSchema calls, used to
// verify EnsurePredefinedSchemas collapses concurrent callers into one
// bootstrap (P7 + the auto-init race design note).
type countingStore struct {
	*kv.MemoryStore
	creates atomic.Int64
}

func (c *countingStore) CreateSchema(ctx context.Context, table string, s kv.PartitionSchemaInfo) error {
	c.creates.Add(1)
	return c.MemoryStore.CreateSchema(ctx, table, s)
}

func TestManager_EnsurePredefinedSchemas_CollapsesConcurrentCallers(t *testing.T) {
	cs := &countingStore{MemoryStore: kv.NewMemoryStore()}
	m := New(cs, table, nil)
	ctx := context.Background()

	const n = 20
	errs := make(chan error, n)
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			errs <- m.EnsurePredefinedSchemas(ctx)
		}()
	}
	go func() {
		for i := 0; i < n; i++ {
			require.NoError(t, <-errs)
		}
		close(done)
	}()
	<-done

	assert.Equal(t, int64(len(catalog.Definitions)), cs.creates.Load())
}

func TestManager_SchemaCount(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	n, err := m.SchemaCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, m.EnsurePredefinedSchemas(ctx))
	n, err = m.SchemaCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.Definitions), n)
}

func TestManager_DropSchema_WrapsAsSchemaError(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()
	require.NoError(t, m.CreateSchemaWithIndexes(ctx, "notes", "notes", nil, nil, false))
	require.NoError(t, m.DropSchema(ctx, "notes"))

	has, err := m.HasSchema(ctx, "notes")
	require.NoError(t, err)
	assert.False(t, has)
}
