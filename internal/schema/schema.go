// Package schema implements the thin CRUD layer over the backend's
// partition-schema and index operations, plus the idempotent bootstrap of
// the predefined category catalog.
package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aetherxhub/ferridyn-memory/internal/catalog"
	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/merr"
	"golang.org/x/sync/singleflight"
)

// notFoundSubstrings are the backend error fragments that indicate
// "no such schema" rather than a real failure. Matching by substring is
// fragile by design (see SPEC_FULL.md §9 / DESIGN.md) — the real engine
// does not expose a discriminated not-found error today.
var notFoundSubstrings = []string{
	"not found",
	"NotFound",
	"does not exist",
	"SchemaNotFound",
}

func looksLikeNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range notFoundSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Store is the subset of the backend façade the schema manager needs.
// internal/backend.Backend satisfies it.
type Store interface {
	CreateSchema(ctx context.Context, table string, schema kv.PartitionSchemaInfo) error
	DescribeSchema(ctx context.Context, table, prefix string) (kv.PartitionSchemaInfo, error)
	ListSchemas(ctx context.Context, table string) ([]kv.PartitionSchemaInfo, error)
	DropSchema(ctx context.Context, table, prefix string) error
	CreateIndex(ctx context.Context, table string, info kv.IndexInfo) error
	ListIndexes(ctx context.Context, table string) ([]kv.IndexInfo, error)
	DescribeIndex(ctx context.Context, table, name string) (kv.IndexInfo, error)
	DropIndex(ctx context.Context, table, name string) error
}

// Manager is the schema subsystem: a façade over backend schema/index ops
// plus idempotent bootstrap of the predefined catalog.
type Manager struct {
	store Store
	table string
	log   *slog.Logger

	initGroup singleflight.Group
}

// New builds a schema Manager bound to one table name.
func New(store Store, table string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, table: table, log: log}
}

// HasSchema reports whether cat has a registered partition schema,
// translating a backend "not found" error into (false, nil) rather than
// surfacing it.
func (m *Manager) HasSchema(ctx context.Context, cat string) (bool, error) {
	_, err := m.store.DescribeSchema(ctx, m.table, cat)
	if err == nil {
		return true, nil
	}
	if looksLikeNotFound(err) {
		return false, nil
	}
	return false, merr.Server("describe schema", err)
}

// GetSchema returns cat's schema, or (nil, nil) if it doesn't exist.
func (m *Manager) GetSchema(ctx context.Context, cat string) (*kv.PartitionSchemaInfo, error) {
	s, err := m.store.DescribeSchema(ctx, m.table, cat)
	if err == nil {
		return &s, nil
	}
	if looksLikeNotFound(err) {
		return nil, nil
	}
	return nil, merr.Server("describe schema", err)
}

// CreateSchemaWithIndexes creates cat's partition schema, then one index
// per name present in both suggestedIndexes and attrs. Index creation
// failures are warned and swallowed — the schema itself is the
// load-bearing artifact, indexes are an optimization.
func (m *Manager) CreateSchemaWithIndexes(ctx context.Context, cat, description string, attrs []kv.AttributeDef, suggestedIndexes []string, validate bool) error {
	schema := kv.PartitionSchemaInfo{
		Prefix:      cat,
		Description: description,
		Attributes:  attrs,
		Validate:    validate,
	}
	if err := m.store.CreateSchema(ctx, m.table, schema); err != nil {
		return merr.Schema(fmt.Sprintf("create schema %q", cat), err)
	}

	byName := make(map[string]kv.AttributeDef, len(attrs))
	for _, a := range attrs {
		byName[a.Name] = a
	}

	for _, name := range suggestedIndexes {
		attr, ok := byName[name]
		if !ok {
			continue
		}
		idx := kv.IndexInfo{
			Name:            kv.IndexNameFor(cat, name),
			PartitionSchema: cat,
			IndexKeyName:    name,
			IndexKeyType:    attr.Type,
		}
		if err := m.store.CreateIndex(ctx, m.table, idx); err != nil {
			m.log.Warn("index creation failed during schema bootstrap",
				"category", cat, "attribute", name, "error", err)
		}
	}
	return nil
}

// CreateCustomSchema creates a user-`define`d schema, preserving its
// optional sort-key-format record (SortKeyFormat/Segments/Examples)
// alongside the attribute set that CreateSchemaWithIndexes already
// handles — the predefined catalog never sets these fields, so bootstrap
// keeps going through the simpler call above.
func (m *Manager) CreateCustomSchema(ctx context.Context, info kv.PartitionSchemaInfo, suggestedIndexes []string) error {
	if err := m.store.CreateSchema(ctx, m.table, info); err != nil {
		return merr.Schema(fmt.Sprintf("create schema %q", info.Prefix), err)
	}

	byName := make(map[string]kv.AttributeDef, len(info.Attributes))
	for _, a := range info.Attributes {
		byName[a.Name] = a
	}

	for _, name := range suggestedIndexes {
		attr, ok := byName[name]
		if !ok {
			continue
		}
		idx := kv.IndexInfo{
			Name:            kv.IndexNameFor(info.Prefix, name),
			PartitionSchema: info.Prefix,
			IndexKeyName:    name,
			IndexKeyType:    attr.Type,
		}
		if err := m.store.CreateIndex(ctx, m.table, idx); err != nil {
			m.log.Warn("index creation failed during custom schema definition",
				"category", info.Prefix, "attribute", name, "error", err)
		}
	}
	return nil
}

// FindIndex returns the canonically-named index over attr within cat, if
// it has been created.
func (m *Manager) FindIndex(ctx context.Context, cat, attr string) (*kv.IndexInfo, error) {
	name := kv.IndexNameFor(cat, attr)
	info, err := m.store.DescribeIndex(ctx, m.table, name)
	if err == nil {
		return &info, nil
	}
	if looksLikeNotFound(err) {
		return nil, nil
	}
	return nil, merr.Index(fmt.Sprintf("describe index %q", name), err)
}

// ListSchemas returns every registered partition schema.
func (m *Manager) ListSchemas(ctx context.Context) ([]kv.PartitionSchemaInfo, error) {
	out, err := m.store.ListSchemas(ctx, m.table)
	if err != nil {
		return nil, merr.Server("list schemas", err)
	}
	return out, nil
}

// DropSchema removes cat's partition schema.
func (m *Manager) DropSchema(ctx context.Context, cat string) error {
	if err := m.store.DropSchema(ctx, m.table, cat); err != nil {
		return merr.Schema(fmt.Sprintf("drop schema %q", cat), err)
	}
	return nil
}

// EnsurePredefinedSchemas creates a schema and indexes for every
// predefined category that doesn't already have one. It is idempotent:
// calling it twice makes no destructive backend calls the second time
// (P7). Concurrent callers collapse onto a single in-flight bootstrap via
// singleflight, addressing the auto-init race documented in
// SPEC_FULL.md §9.
func (m *Manager) EnsurePredefinedSchemas(ctx context.Context) error {
	_, err, _ := m.initGroup.Do(m.table, func() (any, error) {
		for _, d := range catalog.Definitions {
			has, err := m.HasSchema(ctx, d.Name)
			if err != nil {
				return nil, err
			}
			if has {
				continue
			}
			if err := m.CreateSchemaWithIndexes(ctx, d.Name, d.Description, d.Attributes, d.IndexedAttributes, false); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// SchemaCount returns the number of registered partition schemas, used by
// the write pipeline's auto-init check (SPEC_FULL.md §4.7 / Open
// Question 2: re-bootstrap only when the catalog is entirely empty).
func (m *Manager) SchemaCount(ctx context.Context) (int, error) {
	all, err := m.ListSchemas(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
