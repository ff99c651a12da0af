package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkdownFences_IdentityWithoutFence(t *testing.T) {
	cases := []string{
		`{"intent":"remember","content":"x"}`,
		"plain text response",
		"NO_RELEVANT_DATA",
	}
	for _, c := range cases {
		assert.Equal(t, c, StripMarkdownFences(c))
	}
}

func TestStripMarkdownFences_RemovesFence(t *testing.T) {
	in := "```json\n{\"key\":\"a\"}\n```"
	assert.Equal(t, `{"key":"a"}`, StripMarkdownFences(in))
}

func TestStripMarkdownFences_RemovesBareFence(t *testing.T) {
	in := "```\n{\"key\":\"a\"}\n```"
	assert.Equal(t, `{"key":"a"}`, StripMarkdownFences(in))
}

func TestStripMarkdownFences_P9_FixedPoint(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\":1}\n```",
		"no fence here",
		"```\nmultiple\nlines\nhere\n```",
	}
	for _, in := range inputs {
		once := StripMarkdownFences(in)
		twice := StripMarkdownFences(once)
		assert.Equal(t, once, twice, "not a fixed point for %q", in)
	}
}

func TestMockClient_ReturnsInOrder(t *testing.T) {
	m := NewMockClient("first", "second")
	ctx := context.Background()

	got, err := m.Complete(ctx, "sys", "u1")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, err = m.Complete(ctx, "sys", "u2")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "u1", calls[0].User)
	assert.Equal(t, "u2", calls[1].User)
}

func TestMockClient_PanicsWhenExhausted(t *testing.T) {
	m := NewMockClient("only")
	ctx := context.Background()
	_, _ = m.Complete(ctx, "sys", "u1")

	assert.Panics(t, func() {
		_, _ = m.Complete(ctx, "sys", "u2")
	})
}

func TestFailingClient_ReturnsConfiguredError(t *testing.T) {
	want := HTTP("boom", nil)
	f := &FailingClient{Err: want}
	_, err := f.Complete(context.Background(), "sys", "u")
	assert.Equal(t, want, err)
}

func TestLlmError_Unwrap(t *testing.T) {
	inner := assertError{"inner"}
	e := HTTP("failed", inner)
	assert.ErrorIs(t, e, inner)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
