package nlp

import (
	"context"
	"testing"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
	"github.com/aetherxhub/ferridyn-memory/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 8: intent classifier split.
func TestClassifyIntent_RememberVsRecall(t *testing.T) {
	ctx := context.Background()

	remember := llm.NewMockClient(`{"intent":"remember","content":"I have an appointment at noon tomorrow"}`)
	got, err := ClassifyIntent(ctx, remember, "remember I have an appointment at noon tomorrow")
	require.NoError(t, err)
	assert.Equal(t, IntentRemember, got.Kind)
	assert.Equal(t, "I have an appointment at noon tomorrow", got.Content)

	recall := llm.NewMockClient(`{"intent":"recall","query":"Toby's email"}`)
	got, err = ClassifyIntent(ctx, recall, "what is Toby's email")
	require.NoError(t, err)
	assert.Equal(t, IntentRecall, got.Kind)
	assert.Equal(t, "Toby's email", got.Query)
}

func TestClassifyIntent_UnknownTagDefaultsToRemember(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"intent":"maybe"}`)
	got, err := ClassifyIntent(ctx, mock, "some ambiguous thing")
	require.NoError(t, err)
	assert.Equal(t, IntentRemember, got.Kind)
	assert.Equal(t, "some ambiguous thing", got.Content)
}

func TestClassifyIntent_InvalidJSON_IsParseError(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient("not json at all")
	_, err := ClassifyIntent(ctx, mock, "x")
	require.Error(t, err)
	var lerr *llm.LlmError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, llm.KindParse, lerr.Kind)
}

func TestParseDocument_SchemaDirected(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient("```json\n{\"key\":\"team-standup\",\"name\":\"daily standup\",\"status\":\"active\"}\n```")

	schema := kv.PartitionSchemaInfo{
		Prefix: "project",
		Attributes: []kv.AttributeDef{
			{Name: "content", Type: kv.TypeString},
			{Name: "created_at", Type: kv.TypeString},
			{Name: "expires_at", Type: kv.TypeString},
			{Name: "name", Type: kv.TypeString},
			{Name: "status", Type: kv.TypeString},
		},
	}

	doc, err := ParseDocument(ctx, mock, schema, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "daily standup is active")
	require.NoError(t, err)
	assert.Equal(t, "team-standup", doc["key"])
	assert.Equal(t, "active", doc["status"])

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls[0].System, "- created_at (")
}

func TestParseDocument_MissingKey_IsParseError(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"status":"active"}`)
	schema := kv.PartitionSchemaInfo{Prefix: "project"}
	_, err := ParseDocument(ctx, mock, schema, time.Now(), "x")
	var lerr *llm.LlmError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, llm.KindParse, lerr.Kind)
}

func TestParseDocumentCatalog_FallsBackToNotesOnUnknownCategory(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"category":"bogus","key":"some-thought"}`)

	schemas := []kv.PartitionSchemaInfo{
		{Prefix: "notes"},
		{Prefix: "project"},
	}
	cat, doc, err := ParseDocumentCatalog(ctx, mock, schemas, time.Now(), "just a random thought")
	require.NoError(t, err)
	assert.Equal(t, "notes", cat)
	assert.Equal(t, "some-thought", doc["key"])
	_, hasCategory := doc["category"]
	assert.False(t, hasCategory, "category field should be stripped from the document")
}

func TestParseDocumentCatalog_HonorsChosenCategory(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"category":"project","key":"release-v2"}`)
	schemas := []kv.PartitionSchemaInfo{{Prefix: "notes"}, {Prefix: "project"}}
	cat, _, err := ParseDocumentCatalog(ctx, mock, schemas, time.Now(), "release v2 is planned")
	require.NoError(t, err)
	assert.Equal(t, "project", cat)
}

// Scenario 7: resolver dispatch.
func TestResolveQuery_IndexDispatch(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"type":"index","category":"contacts","index_name":"contacts_email","key_value":"t@e.com"}`)

	samples := []SchemaSample{{Schema: kv.PartitionSchemaInfo{Prefix: "contacts"}}}
	indexes := []kv.IndexInfo{{Name: "contacts_email", PartitionSchema: "contacts", IndexKeyName: "email"}}

	resolved, err := ResolveQuery(ctx, mock, samples, indexes, "Toby's email")
	require.NoError(t, err)
	assert.Equal(t, query.KindIndexLookup, resolved.Kind)
	assert.Equal(t, "contacts_email", resolved.IndexName)
	assert.Equal(t, "t@e.com", resolved.KeyValue)
}

func TestResolveQuery_ExactDispatch(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"type":"exact","category":"rust","key":"ownership#borrowing"}`)
	resolved, err := ResolveQuery(ctx, mock, nil, nil, "ownership borrowing")
	require.NoError(t, err)
	assert.Equal(t, query.KindExactLookup, resolved.Kind)
	assert.Equal(t, "ownership#borrowing", resolved.Key)
}

func TestResolveQuery_ScanDispatch_NullPrefix(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"type":"scan","category":"notes","key_prefix":null}`)
	resolved, err := ResolveQuery(ctx, mock, nil, nil, "show me all notes")
	require.NoError(t, err)
	assert.True(t, resolved.IsUnboundedScan())
}

func TestResolveQuery_MissingFieldsForTag_IsParseError(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient(`{"type":"index","category":"contacts"}`)
	_, err := ResolveQuery(ctx, mock, nil, nil, "x")
	require.Error(t, err)
	var lerr *llm.LlmError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, llm.KindParse, lerr.Kind)
}

func TestSynthesizeAnswer_NoRelevantDataMapsToNil(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient("NO_RELEVANT_DATA")
	answer, err := SynthesizeAnswer(ctx, mock, "what color is the sky", nil)
	require.NoError(t, err)
	assert.Nil(t, answer)
}

func TestSynthesizeAnswer_ReturnsProse(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockClient("Toby's email is t@e.com.")
	items := []kv.Item{{"category": "contacts", "key": "toby", "email": "t@e.com"}}
	answer, err := SynthesizeAnswer(ctx, mock, "Toby's email", items)
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, "Toby's email is t@e.com.", *answer)
}
