package cluster

import (
	"context"
	"encoding/json"
	"fmt"
)

// MockTransport is a canned-response Transport for tests.
type MockTransport struct {
	// Fixture data
	User      string
	Responses map[string]interface{} // path -> object marshaled into out

	// Error injection
	Errors     map[string]error // path -> injected error
	ProbeError error

	// Call tracking
	GetCalls   []string
	ProbeCalls int
}

// NewMockTransport creates a mock transport with an authenticated test user.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		User:      "system:serviceaccount:monitoring:pulse",
		Responses: make(map[string]interface{}),
		Errors:    make(map[string]error),
	}
}

// GetJSON implements Transport by round-tripping the fixture through JSON,
// so fixtures can be typed structs or raw maps.
func (m *MockTransport) GetJSON(ctx context.Context, path string, out interface{}) error {
	m.GetCalls = append(m.GetCalls, path)
	if err, ok := m.Errors[path]; ok {
		return err
	}
	obj, ok := m.Responses[path]
	if !ok {
		return fmt.Errorf("mock: no response registered for %s", path)
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("mock: marshal fixture for %s: %w", path, err)
	}
	return json.Unmarshal(raw, out)
}

// Probe implements Transport.
func (m *MockTransport) Probe(ctx context.Context) (string, error) {
	m.ProbeCalls++
	if m.ProbeError != nil {
		return "", m.ProbeError
	}
	return m.User, nil
}
