package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process, mutex-protected implementation of the
// façade's wire contract. It backs tests and the direct-mode fallback
// that cmd/fmemory and cmd/fmemory-mcp use when the daemon socket is
// unreachable; otherwise traffic goes through the networked client in
// internal/backend.
//
// It does not attempt to be a faithful model of the real engine's storage
// format (B-trees, page files, WAL); it only has to honor the same
// read/write contract so the engine above it (schema, NL pipeline, query
// executor, lifecycle) can be exercised without a live server.
type MemoryStore struct {
	mu sync.Mutex

	// tables[table][category][key] = item
	tables map[string]map[string]map[string]Item

	schemas map[string]map[string]PartitionSchemaInfo // table -> prefix -> schema
	indexes map[string]map[string]IndexInfo            // table -> index name -> info
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:  make(map[string]map[string]map[string]Item),
		schemas: make(map[string]map[string]PartitionSchemaInfo),
		indexes: make(map[string]map[string]IndexInfo),
	}
}

func (m *MemoryStore) table(name string) map[string]map[string]Item {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]map[string]Item)
		m.tables[name] = t
	}
	return t
}

func cloneItem(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func category(item Item) (string, error) {
	v, ok := item["category"]
	if !ok {
		return "", &ErrInvalidItem{Reason: "missing \"category\""}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &ErrInvalidItem{Reason: "\"category\" must be a non-empty string"}
	}
	return s, nil
}

func sortKey(item Item) (string, error) {
	v, ok := item["key"]
	if !ok {
		return "", &ErrInvalidItem{Reason: "missing \"key\""}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &ErrInvalidItem{Reason: "\"key\" must be a non-empty string"}
	}
	return s, nil
}

// PutItem upserts doc into table, replacing any existing item with the
// same (category, key).
func (m *MemoryStore) PutItem(ctx context.Context, table string, doc Item) error {
	cat, err := category(doc)
	if err != nil {
		return err
	}
	key, err := sortKey(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	part, ok := t[cat]
	if !ok {
		part = make(map[string]Item)
		t[cat] = part
	}
	part[key] = cloneItem(doc)
	return nil
}

// GetItem returns the item at (category, key), or ok=false if absent.
func (m *MemoryStore) GetItem(ctx context.Context, table, category, key string) (Item, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	part, ok := m.table(table)[category]
	if !ok {
		return nil, false, nil
	}
	item, ok := part[key]
	if !ok {
		return nil, false, nil
	}
	return cloneItem(item), true, nil
}

// Query returns up to limit items in category, sorted by sort key,
// optionally filtered to keys beginning with prefix.
func (m *MemoryStore) Query(ctx context.Context, table, category string, prefix *string, limit int) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	part := m.table(table)[category]
	keys := make([]string, 0, len(part))
	for k := range part {
		if prefix != nil && !strings.HasPrefix(k, *prefix) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]Item, 0, len(keys))
	for _, k := range keys {
		out = append(out, cloneItem(part[k]))
	}
	return out, nil
}

// DeleteItem removes (category, key) if present; absent keys are not an
// error.
func (m *MemoryStore) DeleteItem(ctx context.Context, table, category, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	part, ok := m.table(table)[category]
	if !ok {
		return nil
	}
	delete(part, key)
	return nil
}

// ListPartitionKeys returns up to limit distinct category values in table.
func (m *MemoryStore) ListPartitionKeys(ctx context.Context, table string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	cats := make([]string, 0, len(t))
	for c := range t {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	if limit > 0 && len(cats) > limit {
		cats = cats[:limit]
	}
	return cats, nil
}

// ListSortKeyPrefixes returns up to limit distinct "#"-delimited first
// segments of sort keys within category.
func (m *MemoryStore) ListSortKeyPrefixes(ctx context.Context, table, category string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	part := m.table(table)[category]
	seen := make(map[string]bool)
	var prefixes []string
	for k := range part {
		p := k
		if idx := strings.Index(k, "#"); idx >= 0 {
			p = k[:idx]
		}
		if !seen[p] {
			seen[p] = true
			prefixes = append(prefixes, p)
		}
	}
	sort.Strings(prefixes)
	if limit > 0 && len(prefixes) > limit {
		prefixes = prefixes[:limit]
	}
	return prefixes, nil
}

// -- Schema operations --

func (m *MemoryStore) schemaTable(table string) map[string]PartitionSchemaInfo {
	s, ok := m.schemas[table]
	if !ok {
		s = make(map[string]PartitionSchemaInfo)
		m.schemas[table] = s
	}
	return s
}

// CreateSchema defines a partition schema. It errors if one already exists
// for prefix.
func (m *MemoryStore) CreateSchema(ctx context.Context, table string, schema PartitionSchemaInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.schemaTable(table)
	if _, exists := s[schema.Prefix]; exists {
		return fmt.Errorf("kv: schema %q already exists", schema.Prefix)
	}
	s[schema.Prefix] = schema
	return nil
}

// ErrSchemaNotFound is returned by DescribeSchema when no schema is
// registered for the given prefix. Its message intentionally contains
// "not found" so the schema manager's substring-based translation (see
// internal/schema) exercises the same fragile-by-design path a real
// engine's error message would.
type ErrSchemaNotFound struct{ Prefix string }

func (e *ErrSchemaNotFound) Error() string {
	return fmt.Sprintf("partition schema not found: %q", e.Prefix)
}

// DescribeSchema returns the schema for prefix, or *ErrSchemaNotFound.
func (m *MemoryStore) DescribeSchema(ctx context.Context, table, prefix string) (PartitionSchemaInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schemaTable(table)[prefix]
	if !ok {
		return PartitionSchemaInfo{}, &ErrSchemaNotFound{Prefix: prefix}
	}
	return s, nil
}

// ListSchemas returns every registered schema in table.
func (m *MemoryStore) ListSchemas(ctx context.Context, table string) ([]PartitionSchemaInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.schemaTable(table)
	out := make([]PartitionSchemaInfo, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out, nil
}

// DropSchema removes the schema for prefix, if present.
func (m *MemoryStore) DropSchema(ctx context.Context, table, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.schemaTable(table), prefix)
	return nil
}

// -- Index operations --

func (m *MemoryStore) indexTable(table string) map[string]IndexInfo {
	i, ok := m.indexes[table]
	if !ok {
		i = make(map[string]IndexInfo)
		m.indexes[table] = i
	}
	return i
}

// CreateIndex registers a secondary index.
func (m *MemoryStore) CreateIndex(ctx context.Context, table string, info IndexInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexTable(table)
	if _, exists := idx[info.Name]; exists {
		return fmt.Errorf("kv: index %q already exists", info.Name)
	}
	idx[info.Name] = info
	return nil
}

// ListIndexes returns every registered index in table.
func (m *MemoryStore) ListIndexes(ctx context.Context, table string) ([]IndexInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexTable(table)
	out := make([]IndexInfo, 0, len(idx))
	for _, v := range idx {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ErrIndexNotFound is returned by DescribeIndex when name is unregistered.
type ErrIndexNotFound struct{ Name string }

func (e *ErrIndexNotFound) Error() string {
	return fmt.Sprintf("index not found: %q", e.Name)
}

// DescribeIndex returns the named index's info.
func (m *MemoryStore) DescribeIndex(ctx context.Context, table, name string) (IndexInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.indexTable(table)[name]
	if !ok {
		return IndexInfo{}, &ErrIndexNotFound{Name: name}
	}
	return info, nil
}

// DropIndex removes the named index, if present.
func (m *MemoryStore) DropIndex(ctx context.Context, table, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.indexTable(table), name)
	return nil
}

// QueryIndex returns up to limit items in the index's category whose
// indexed attribute equals keyValue. limit<=0 means unbounded.
func (m *MemoryStore) QueryIndex(ctx context.Context, table, indexName string, keyValue any, limit int) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.indexTable(table)[indexName]
	if !ok {
		return nil, &ErrIndexNotFound{Name: indexName}
	}

	part := m.table(table)[info.PartitionSchema]
	keys := make([]string, 0, len(part))
	for k := range part {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Item
	for _, k := range keys {
		item := part[k]
		if v, ok := item[info.IndexKeyName]; ok && equalValue(v, keyValue) {
			out = append(out, cloneItem(item))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func equalValue(a, b any) bool {
	// JSON round-tripping can turn integers into float64; compare via
	// fmt so "5" and float64(5) behave the same as they would coming
	// back off the wire.
	return fmt.Sprint(a) == fmt.Sprint(b)
}
