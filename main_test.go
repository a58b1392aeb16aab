package main

import (
	"bytes"
	"io/ioutil"
	"net/http"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetLevel(log.WarnLevel)
}

// MockClient is a mock HTTP client for testing
type MockClient struct {
	Response  []byte
	Code      int
	HeaderMap map[string]string
	Method    string
	Calls     int
	Body      []byte
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
	var res http.Response
	m.Calls++

	body, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	m.Body = body

	if len(m.HeaderMap) > 0 {
		for k, value := range m.HeaderMap {
			if value != req.Header.Get(k) {
				res.Body = ioutil.NopCloser(bytes.NewReader([]byte("Bad header values")))
				res.StatusCode = http.StatusBadRequest
				return &res, nil
			}
		}
	}

	if m.Method != "" {
		if req.Method != m.Method {
			res.Body = ioutil.NopCloser(bytes.NewReader([]byte("Bad method")))
			res.StatusCode = http.StatusBadRequest
			return &res, nil
		}
	}

	res.Body = ioutil.NopCloser(bytes.NewReader(m.Response))
	res.StatusCode = m.Code
	return &res, nil
}
