// Package catalog defines the predefined category catalog: nine
// compile-time category definitions, their attribute schemas, and which
// attributes carry a secondary index. This is the only place the catalog
// is declared; the schema manager and write pipeline consult it, never
// hand-roll a category definition of their own.
package catalog

import "github.com/aetherxhub/ferridyn-memory/internal/kv"

// Definition describes one predefined category: its name, a human
// description used in LLM prompts, its attribute list, and which of those
// attributes get a secondary index during bootstrap.
type Definition struct {
	Name            string
	Description     string
	Attributes      []kv.AttributeDef
	IndexedAttributes []string
}

func str(name string) kv.AttributeDef {
	return kv.AttributeDef{Name: name, Type: kv.TypeString, Required: false}
}

// system returns the three attributes every predefined category carries.
func system() []kv.AttributeDef {
	return []kv.AttributeDef{str("content"), str("created_at"), str("expires_at")}
}

// Definitions is the compile-time list of the nine predefined categories.
// Order matches spec order; callers that need a stable iteration order
// (e.g. ensurePredefinedSchemas) should range over this slice directly
// rather than a derived map.
var Definitions = []Definition{
	{
		Name:        "project",
		Description: "Facts and state about an ongoing project: goals, status, milestones.",
		Attributes: append(system(),
			str("name"), str("status"), str("owner")),
		IndexedAttributes: []string{"name", "status"},
	},
	{
		Name:        "decisions",
		Description: "Decisions made and their rationale, for later recall.",
		Attributes: append(system(),
			str("topic"), str("rationale"), str("decided_by")),
		IndexedAttributes: []string{"topic"},
	},
	{
		Name:        "contacts",
		Description: "People: names, contact details, relationship context.",
		Attributes: append(system(),
			str("name"), str("email"), str("company"), str("phone")),
		IndexedAttributes: []string{"name", "email", "company"},
	},
	{
		Name:        "preferences",
		Description: "Standing preferences and defaults the user has stated.",
		Attributes: append(system(),
			str("topic"), str("value")),
		IndexedAttributes: []string{"topic"},
	},
	{
		Name:        "issues",
		Description: "Known problems, bugs, or open concerns.",
		Attributes: append(system(),
			str("title"), str("status"), str("severity")),
		IndexedAttributes: []string{"status", "severity"},
	},
	{
		Name:        "tools",
		Description: "Tools, libraries, and commands worth remembering.",
		Attributes: append(system(),
			str("name"), str("usage")),
		IndexedAttributes: []string{"name"},
	},
	{
		Name:        "events",
		Description: "Dated events: appointments, deadlines, reminders.",
		Attributes: append(system(),
			str("title"), str("date"), str("time"), str("location")),
		IndexedAttributes: []string{"date"},
	},
	{
		Name:        "notes",
		Description: "General freeform notes that don't fit another category.",
		Attributes:  system(),
		IndexedAttributes: nil,
	},
	{
		Name:        "scratchpad",
		Description: "Short-lived working notes, auto-expired after 24 hours.",
		Attributes: append(system(),
			str("source")),
		IndexedAttributes: nil,
	},
}

// ByName returns the predefined definition for name, if any.
func ByName(name string) (Definition, bool) {
	for _, d := range Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Names returns the nine predefined category names in catalog order.
func Names() []string {
	out := make([]string, len(Definitions))
	for i, d := range Definitions {
		out[i] = d.Name
	}
	return out
}

// ToPartitionSchema converts a predefined definition into the backend's
// wire representation. Predefined schemas are always lenient
// (validate=false) so attributes can accrete over time without breaking
// existing data — see SPEC_FULL.md §3.
func ToPartitionSchema(d Definition) kv.PartitionSchemaInfo {
	attrs := make([]kv.AttributeDef, len(d.Attributes))
	copy(attrs, d.Attributes)
	return kv.PartitionSchemaInfo{
		Prefix:      d.Name,
		Description: d.Description,
		Attributes:  attrs,
		Validate:    false,
	}
}
