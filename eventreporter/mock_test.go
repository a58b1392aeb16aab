package eventreporter

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"sync"
)

// MockClient is a mock HTTP client that records what it was asked to send
type MockClient struct {
	Response []byte
	Code     int
	Err      error

	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

// NewMockClient creates a new mock client that will return the response b and the code c
func NewMockClient(b []byte, c int) *MockClient {
	return &MockClient{
		Response: b,
		Code:     c,
	}
}

// Do implements the HTTPClient interface for MockClient
func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	body, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	var res http.Response
	res.Body = ioutil.NopCloser(bytes.NewReader(m.Response))
	res.StatusCode = m.Code
	return &res, nil
}

func (m *MockClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// recordingReporter records the errors it's asked to report
type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, err error) (*Payload, error) {
	r.errs = append(r.errs, err)
	return &Payload{}, nil
}
