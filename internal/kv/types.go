// Package kv defines the data types exchanged with the underlying
// wide-column key/value engine: items, attribute definitions, partition
// schemas, and secondary indexes. The engine itself — a single-node
// DynamoDB-like store with partition+sort keys and typed attribute
// schemas — is an external collaborator; this package only describes the
// shapes that cross the boundary, plus a small in-memory implementation
// used as the in-process "direct" backend variant (see internal/backend).
package kv

import "fmt"

// AttributeType is one of the three scalar types a memory attribute may
// declare.
type AttributeType string

const (
	TypeString  AttributeType = "STRING"
	TypeNumber  AttributeType = "NUMBER"
	TypeBoolean AttributeType = "BOOLEAN"
)

// AttributeDef describes one attribute of a partition schema.
type AttributeDef struct {
	Name     string        `json:"name"`
	Type     AttributeType `json:"type"`
	Required bool          `json:"required"`
}

// SegmentDef names one "#"-delimited segment of a sort-key format, in
// declaration order (an IndexMap in the original source; Go has no ordered
// map literal, so we carry order explicitly in a slice).
type SegmentDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PartitionSchemaInfo is the stored description of one category's schema.
type PartitionSchemaInfo struct {
	Prefix      string         `json:"prefix"`
	Description string         `json:"description"`
	Attributes  []AttributeDef `json:"attributes"`
	Validate    bool           `json:"validate"`

	// Optional "define"-path extension (see SPEC_FULL.md §3): a
	// human-authored sort-key-format record used to validate literal
	// keys on write. It is not included in the NL resolver's prompt.
	// Left zero-valued for the predefined catalog's schemas.
	SortKeyFormat string       `json:"sort_key_format,omitempty"`
	Segments      []SegmentDef `json:"segments,omitempty"`
	Examples      []string     `json:"examples,omitempty"`
}

// HasKeyFormat reports whether this schema carries a define-path
// sort-key-format record.
func (s PartitionSchemaInfo) HasKeyFormat() bool {
	return s.SortKeyFormat != ""
}

// IndexInfo describes one secondary index mapping an attribute value to
// items within a category.
type IndexInfo struct {
	Name            string        `json:"name"`
	PartitionSchema string        `json:"partition_schema"`
	IndexKeyName    string        `json:"index_key_name"`
	IndexKeyType    AttributeType `json:"index_key_type"`
}

// IndexNameFor returns the canonical name of the index over attr within
// category, per the "{category}_{attribute}" convention.
func IndexNameFor(category, attr string) string {
	return fmt.Sprintf("%s_%s", category, attr)
}

// Item is a memory document: a flat bag of JSON-compatible attributes,
// always containing at least "category" and "key".
type Item = map[string]any
