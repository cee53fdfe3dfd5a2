package gateway

import "fmt"

// NetworkError wraps a transport-level failure: the remote metrics service
// was unreachable or the request was aborted before a response arrived.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx response. Body is kept for diagnostics only
// and is never decoded as metric data.
type HTTPStatusError struct {
	URL    string
	Status int
	Body   []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// DecodeError means a response body could not be turned into a structurally
// valid snapshot for the query's result shape. Partially valid bodies are
// never applied.
type DecodeError struct {
	Query string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode response for query %q: %v", e.Query, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
