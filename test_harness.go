package rigging

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/slimloans/rigging/config"
)

// TestHarness runs requests against a set up environment without a network
// server
type TestHarness struct {
	Env *Environment
}

// NewTestHarness builds an isolated environment (no config file, the test
// environment settings), lets prepare mount apps and register hooks on it
// and sets it up
func NewTestHarness(prepare func(e *Environment) error) (*TestHarness, error) {
	e := New(Options{Store: config.Options{SkipFile: true}})

	if prepare != nil {
		if err := prepare(e); err != nil {
			return nil, err
		}
	}

	if _, err := e.Setup(Test); err != nil {
		return nil, err
	}

	return &TestHarness{Env: e}, nil
}

// Get creates a GET request builder
func (h *TestHarness) Get(path string) *RequestBuilder {
	return h.newRequest(http.MethodGet, path)
}

// Post creates a POST request builder
func (h *TestHarness) Post(path string) *RequestBuilder {
	return h.newRequest(http.MethodPost, path)
}

// Request creates a request builder for any method
func (h *TestHarness) Request(method, path string) *RequestBuilder {
	return h.newRequest(method, path)
}

func (h *TestHarness) newRequest(method, path string) *RequestBuilder {
	return &RequestBuilder{
		harness: h,
		method:  method,
		path:    path,
		headers: make(http.Header),
	}
}

// RequestBuilder provides a fluent API for building test requests
type RequestBuilder struct {
	harness *TestHarness
	method  string
	path    string
	host    string
	body    interface{}
	headers http.Header
}

// WithHeader sets a request header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers.Set(key, value)
	return rb
}

// WithHost sets the request host
func (rb *RequestBuilder) WithHost(host string) *RequestBuilder {
	rb.host = host
	return rb
}

// WithBody sets the request body, strings and bytes are sent as is and
// anything else is sent as JSON
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithJSON sets the body and the JSON content type
func (rb *RequestBuilder) WithJSON(body interface{}) *RequestBuilder {
	rb.body = body
	rb.headers.Set("Content-Type", "application/json")
	return rb
}

// Send runs the request through the environment
func (rb *RequestBuilder) Send() *TestResponse {
	var body io.Reader

	switch b := rb.body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
	case string:
		body = strings.NewReader(b)
	default:
		encoded, _ := json.Marshal(b)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(rb.method, rb.path, body)
	for k, v := range rb.headers {
		req.Header[k] = v
	}

	if rb.host != "" {
		req.Host = rb.host
	}

	w := httptest.NewRecorder()
	rb.harness.Env.ServeHTTP(w, req)

	return &TestResponse{Recorder: w}
}

// TestResponse wraps httptest.ResponseRecorder with helper methods
type TestResponse struct {
	Recorder *httptest.ResponseRecorder
}

func (r *TestResponse) Status() int         { return r.Recorder.Code }
func (r *TestResponse) Body() string        { return r.Recorder.Body.String() }
func (r *TestResponse) Header() http.Header { return r.Recorder.Header() }

func (r *TestResponse) Unmarshal(v interface{}) error {
	return json.Unmarshal(r.Recorder.Body.Bytes(), v)
}
