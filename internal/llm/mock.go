package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a FIFO stand-in for Client used throughout the NL
// pipeline's tests: each call to Complete pops the next prescripted
// response off the queue. Calling Complete with the queue empty is a
// test-authoring bug, not a runtime condition, so it panics rather than
// returning an EmptyResponse error.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	calls     []Call
}

// Call records one invocation of Complete, for assertions about what the
// pipeline actually asked the model.
type Call struct {
	System string
	User   string
}

// NewMockClient builds a mock that returns responses in order, one per
// call to Complete.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

func (m *MockClient) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{System: system, User: user})

	if len(m.responses) == 0 {
		panic(fmt.Sprintf("llm: MockClient exhausted after %d calls", len(m.calls)))
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// Calls returns every recorded invocation, in order.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// FailingClient always returns err, used to exercise the NL pipeline's
// error-surfacing paths.
type FailingClient struct {
	Err error
}

func (f *FailingClient) Complete(ctx context.Context, system, user string) (string, error) {
	return "", f.Err
}
