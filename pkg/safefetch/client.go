package safefetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/safefetch/pkg/httpclient"
)

const unsupportedContentTypeMessage = "Unsupported response content type"

// Request describes a single fetch: transport-level settings passed through
// unmodified, plus optional schemas for the success and error bodies. The
// zero value is a plain GET with no validation.
type Request struct {
	Method  string
	Headers map[string]string
	Query   map[string]string
	Body    any

	SuccessSchema Validator
	ErrorSchema   Validator
}

// Client turns HTTP calls into Results. Each Fetch is one independent,
// reentrant chain of request, extraction and validation; the client holds no
// per-call state.
type Client struct {
	transport httpclient.Client
	log       Logger
}

// DefaultTransport returns the resty-backed transport used when none is injected.
func DefaultTransport() httpclient.Client { return httpclient.NewRestyClient(15 * time.Second) }

// New builds a Client over the given transport. A nil transport falls back to
// DefaultTransport; a nil logger disables logging.
func New(transport httpclient.Client, log Logger) *Client {
	if transport == nil {
		transport = DefaultTransport()
	}
	return &Client{transport: transport, log: ensureLogger(log)}
}

// Get fetches the target with no options and no schemas.
func (c *Client) Get(ctx context.Context, target string) Result {
	return c.Fetch(ctx, target, Request{})
}

// Fetch issues the request and assembles the Result. Every path ends in
// exactly one error variant or one value; nothing is raised past this
// boundary. Failure stages are ordered transport, HTTP status, extraction,
// validation, and only the last failing stage is surfaced.
func (c *Client) Fetch(ctx context.Context, target string, req Request) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := c.transport.Do(ctx, target, httpclient.RequestOptions{
		Method:  req.Method,
		Headers: req.Headers,
		Query:   req.Query,
		Body:    req.Body,
	})
	if err != nil {
		classified := classifyTransportError(err)
		c.log.WarnObj("transport call failed", "fetch_failure", map[string]any{
			"target": target,
			"kind":   classified.Kind,
		})
		return failure(classified)
	}

	if !resp.IsSuccess() {
		return c.assembleErrorResult(ctx, resp, req)
	}
	return c.assembleSuccessResult(ctx, resp, req)
}

// assembleErrorResult handles non-success statuses: the body is still
// extracted and optionally validated so the caller gets an inspectable error
// payload. An extraction failure replaces the HTTP error outright, and a
// rejected error body is itself noteworthy enough to replace it too.
func (c *Client) assembleErrorResult(ctx context.Context, resp httpclient.Response, req Request) Result {
	payload, extractErr := c.extract(resp)
	if extractErr != nil {
		return failure(extractErr)
	}

	code := resp.StatusCode()
	if req.ErrorSchema != nil {
		validated, validationErr := applySchema(ctx, req.ErrorSchema, payload)
		if validationErr != nil {
			return failure(validationErr)
		}
		return failure(newHTTPError(code, reasonPhrase(code), validated))
	}
	return failure(newHTTPError(code, reasonPhrase(code), payload))
}

// assembleSuccessResult decodes the body and, when a schema was supplied and
// the body is non-empty, returns the schema's normalized output instead of
// the raw payload.
func (c *Client) assembleSuccessResult(ctx context.Context, resp httpclient.Response, req Request) Result {
	payload, extractErr := c.extract(resp)
	if extractErr != nil {
		return failure(extractErr)
	}

	if req.SuccessSchema != nil && len(bytes.TrimSpace(resp.Body())) > 0 {
		validated, validationErr := applySchema(ctx, req.SuccessSchema, payload)
		if validationErr != nil {
			return failure(validationErr)
		}
		return success(validated)
	}
	return success(payload)
}

// extract routes the declared content type to a parser and runs it. An
// unrouted media type is a typed payload failure, never a guessed decode.
func (c *Client) extract(resp httpclient.Response) (any, *Error) {
	contentType := declaredContentType(resp)

	declared := ""
	if contentType != nil {
		declared = *contentType
	}
	parser, ok := routeContentType(declared)
	if !ok {
		c.log.DebugObj("unsupported content type", "content_type", declared)
		return nil, newPayloadError(unsupportedContentTypeMessage, contentType, "")
	}

	return extractPayload(resp, parser, contentType)
}

// declaredContentType preserves the distinction between an absent header and
// an empty one.
func declaredContentType(resp httpclient.Response) *string {
	ct := resp.Header("Content-Type")
	if ct == "" {
		return nil
	}
	return &ct
}

// reasonPhrase looks up the standard reason phrase for a status code.
func reasonPhrase(code int) string {
	if phrase := http.StatusText(code); phrase != "" {
		return phrase
	}
	return fmt.Sprintf("Request failed with status %d", code)
}
