package httpclient

import (
	"context"
	"net/url"
)

// Request describes a single outbound HTTP exchange.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	// Body is sent as-is when non-empty.
	Body []byte
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Implementations return an error only when no response was received; HTTP error
// statuses are reported through Response.
type Client interface {
	Do(ctx context.Context, req *Request) (Response, error)
}
