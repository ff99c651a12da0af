package catalog

import (
	"testing"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrNames(attrs []kv.AttributeDef) map[string]kv.AttributeDef {
	out := make(map[string]kv.AttributeDef, len(attrs))
	for _, a := range attrs {
		out[a.Name] = a
	}
	return out
}

func TestCatalog_HasExactlyNineEntries(t *testing.T) {
	assert.Len(t, Definitions, 9)
}

func TestCatalog_P1_NonRequiredAndSystemAttributes(t *testing.T) {
	for _, d := range Definitions {
		names := attrNames(d.Attributes)
		for _, want := range []string{"content", "created_at", "expires_at"} {
			attr, ok := names[want]
			require.Truef(t, ok, "%s missing attribute %q", d.Name, want)
			assert.Equal(t, kv.TypeString, attr.Type, "%s.%s should be STRING", d.Name, want)
		}
		for _, a := range d.Attributes {
			assert.Falsef(t, a.Required, "%s.%s must not be required", d.Name, a.Name)
		}
	}
}

func TestCatalog_P2_IndexedAttributesAreDeclared(t *testing.T) {
	for _, d := range Definitions {
		names := attrNames(d.Attributes)
		for _, idx := range d.IndexedAttributes {
			_, ok := names[idx]
			assert.Truef(t, ok, "%s declares indexed attribute %q not present in Attributes", d.Name, idx)
		}
	}
}

func TestCatalog_ScratchpadHasSource(t *testing.T) {
	d, ok := ByName("scratchpad")
	require.True(t, ok)
	_, hasSource := attrNames(d.Attributes)["source"]
	assert.True(t, hasSource)
}

func TestCatalog_EventsHasDateAndTime(t *testing.T) {
	d, ok := ByName("events")
	require.True(t, ok)
	names := attrNames(d.Attributes)
	_, hasDate := names["date"]
	_, hasTime := names["time"]
	assert.True(t, hasDate)
	assert.True(t, hasTime)
}

func TestCatalog_NameIsIssuesNotBugs(t *testing.T) {
	_, ok := ByName("issues")
	assert.True(t, ok)
	_, ok = ByName("bugs")
	assert.False(t, ok)
}

func TestCatalog_ByName_Unknown(t *testing.T) {
	_, ok := ByName("does-not-exist")
	assert.False(t, ok)
}

func TestCatalog_ToPartitionSchema_IsLenient(t *testing.T) {
	d, ok := ByName("notes")
	require.True(t, ok)
	schema := ToPartitionSchema(d)
	assert.Equal(t, "notes", schema.Prefix)
	assert.False(t, schema.Validate)
	assert.NotEmpty(t, schema.Attributes)
}

func TestCatalog_Names_MatchesDefinitionOrder(t *testing.T) {
	names := Names()
	require.Len(t, names, len(Definitions))
	for i, d := range Definitions {
		assert.Equal(t, d.Name, names[i])
	}
}
