package httpclient

import "context"

// Response is the minimal HTTP response contract the fetch pipeline consumes.
type Response interface {
	Body() []byte
	StatusCode() int
	IsSuccess() bool
	Header(name string) string
}

// RequestOptions carries transport-level settings for a single request. Zero
// values mean GET with no extra headers, query or body.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Query   map[string]string
	Body    any
}

// Client abstracts HTTP calls so callers can inject mocks or different
// transports. Cancellation flows through ctx.
type Client interface {
	Do(ctx context.Context, url string, opts RequestOptions) (Response, error)
}
