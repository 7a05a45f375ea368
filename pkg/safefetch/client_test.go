package safefetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/safefetch/pkg/httpclient"
)

// stubTransport returns a single canned response or failure.
type stubTransport struct {
	resp httpclient.Response
	err  error
}

func (s stubTransport) Do(_ context.Context, _ string, _ httpclient.RequestOptions) (httpclient.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func jsonResponse(status int, body string) stubResponse {
	return stubResponse{
		body:    []byte(body),
		status:  status,
		headers: map[string]string{"Content-Type": "application/json"},
	}
}

func TestFetchSuccessNoSchemaReturnsDecodedBody(t *testing.T) {
	client := New(stubTransport{resp: jsonResponse(200, `{"name":"value","email":"x@example.com"}`)}, nil)

	result := client.Get(context.Background(), "https://api.example.com/users/1")
	if result.IsErr() {
		t.Fatalf("unexpected error: %v", result.Err())
	}
	want := map[string]any{"name": "value", "email": "x@example.com"}
	if !reflect.DeepEqual(result.Value(), want) {
		t.Fatalf("value mismatch: %v", result.Value())
	}
}

func TestFetchSuccessSchemaReturnsNormalizedOutput(t *testing.T) {
	normalized := map[string]any{"name": "value", "role": "member"}
	client := New(stubTransport{resp: jsonResponse(200, `{"name":"value"}`)}, nil)

	result := client.Fetch(context.Background(), "https://api.example.com/users/1", Request{
		SuccessSchema: stubValidator{out: normalized},
	})
	if result.IsErr() {
		t.Fatalf("unexpected error: %v", result.Err())
	}
	if !reflect.DeepEqual(result.Value(), normalized) {
		t.Fatalf("expected normalized value, got %v", result.Value())
	}
}

func TestFetchSuccessSchemaRejectionPreservesRawInput(t *testing.T) {
	client := New(stubTransport{resp: jsonResponse(200, `{"email":42}`)}, nil)

	result := client.Fetch(context.Background(), "https://api.example.com/users/1", Request{
		SuccessSchema: stubValidator{issues: []Issue{{Path: "email", Message: "expected string"}}},
	})
	fetchErr := result.Err()
	if fetchErr == nil {
		t.Fatalf("expected validation error, got %v", result.Value())
	}
	if fetchErr.Kind != KindValidation {
		t.Fatalf("expected validation kind, got %q", fetchErr.Kind)
	}
	want := map[string]any{"email": float64(42)}
	if !reflect.DeepEqual(fetchErr.Input, want) {
		t.Fatalf("input is not the raw decoded body: %v", fetchErr.Input)
	}
	if len(fetchErr.Violations) != 1 || fetchErr.Violations[0].Path != "email" {
		t.Fatalf("unexpected violations %v", fetchErr.Violations)
	}
}

func TestFetchEmptyBodySkipsSuccessSchema(t *testing.T) {
	rejectAll := stubValidator{issues: []Issue{{Message: "must not run"}}}
	client := New(stubTransport{resp: jsonResponse(200, "")}, nil)

	result := client.Fetch(context.Background(), "https://api.example.com/ping", Request{
		SuccessSchema: rejectAll,
	})
	if result.IsErr() {
		t.Fatalf("schema ran against an empty body: %v", result.Err())
	}
	if result.Value() != nil {
		t.Fatalf("expected empty payload, got %v", result.Value())
	}
}

func TestFetchHTTPErrorNoSchemaAttachesRawBody(t *testing.T) {
	client := New(stubTransport{resp: jsonResponse(500, `{"error":"Server error"}`)}, nil)

	result := client.Get(context.Background(), "https://api.example.com/users/1")
	fetchErr := result.Err()
	if fetchErr == nil {
		t.Fatalf("expected http error, got %v", result.Value())
	}
	if fetchErr.Kind != KindHTTP || fetchErr.Code != 500 {
		t.Fatalf("unexpected error %+v", fetchErr)
	}
	if fetchErr.Message != "Internal Server Error" {
		t.Fatalf("expected reason phrase message, got %q", fetchErr.Message)
	}
	want := map[string]any{"error": "Server error"}
	if !reflect.DeepEqual(fetchErr.Properties, want) {
		t.Fatalf("properties mismatch: %v", fetchErr.Properties)
	}
}

func TestFetchHTTPErrorSchemaAttachesValidatedBody(t *testing.T) {
	validated := map[string]any{"error": "Server error", "requestID": "n/a"}
	client := New(stubTransport{resp: jsonResponse(503, `{"error":"Server error"}`)}, nil)

	result := client.Fetch(context.Background(), "https://api.example.com/users/1", Request{
		ErrorSchema: stubValidator{out: validated},
	})
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindHTTP {
		t.Fatalf("expected http error, got %+v", fetchErr)
	}
	if fetchErr.Code != 503 {
		t.Fatalf("expected code 503, got %d", fetchErr.Code)
	}
	if !reflect.DeepEqual(fetchErr.Properties, validated) {
		t.Fatalf("expected validated properties, got %v", fetchErr.Properties)
	}
}

func TestFetchValidationFailureSupersedesHTTPError(t *testing.T) {
	client := New(stubTransport{resp: jsonResponse(500, `{"unexpected":"shape"}`)}, nil)

	result := client.Fetch(context.Background(), "https://api.example.com/users/1", Request{
		ErrorSchema: stubValidator{issues: []Issue{{Path: "error", Message: "required"}}},
	})
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindValidation {
		t.Fatalf("expected validation error to replace http error, got %+v", fetchErr)
	}
}

func TestFetchExtractionFailureSupersedesHTTPError(t *testing.T) {
	client := New(stubTransport{resp: jsonResponse(500, `not json at all`)}, nil)

	result := client.Fetch(context.Background(), "https://api.example.com/users/1", Request{
		ErrorSchema: stubValidator{out: map[string]any{}},
	})
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindPayload {
		t.Fatalf("expected payload error to replace http error, got %+v", fetchErr)
	}
	if !strings.Contains(fetchErr.Message, "Failed to parse response") {
		t.Fatalf("unexpected message %q", fetchErr.Message)
	}
}

func TestFetchUnsupportedContentType(t *testing.T) {
	resp := stubResponse{
		body:    []byte("%PDF-1.7"),
		status:  200,
		headers: map[string]string{"Content-Type": "application/pdf"},
	}
	client := New(stubTransport{resp: resp}, nil)

	result := client.Get(context.Background(), "https://api.example.com/report")
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindPayload {
		t.Fatalf("expected payload error, got %+v", fetchErr)
	}
	if fetchErr.ContentType == nil || *fetchErr.ContentType != "application/pdf" {
		t.Fatalf("content type not preserved: %v", fetchErr.ContentType)
	}
	if result.Value() != nil {
		t.Fatalf("no value must be produced, got %v", result.Value())
	}
}

func TestFetchMissingContentTypeHeader(t *testing.T) {
	resp := stubResponse{body: []byte("anything"), status: 200}
	client := New(stubTransport{resp: resp}, nil)

	result := client.Get(context.Background(), "https://api.example.com/raw")
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindPayload {
		t.Fatalf("expected payload error, got %+v", fetchErr)
	}
	if fetchErr.ContentType != nil {
		t.Fatalf("expected nil content type for absent header, got %q", *fetchErr.ContentType)
	}
}

func TestFetchClassifiesAbort(t *testing.T) {
	cause := &url.Error{Op: "Get", URL: "https://api.example.com", Err: context.Canceled}
	client := New(stubTransport{err: cause}, nil)

	result := client.Get(context.Background(), "https://api.example.com")
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindAbort {
		t.Fatalf("expected abort kind, got %+v", fetchErr)
	}
}

func TestFetchClassifiesDeadlineAsAbort(t *testing.T) {
	cause := &url.Error{Op: "Get", URL: "https://api.example.com", Err: context.DeadlineExceeded}
	client := New(stubTransport{err: cause}, nil)

	result := client.Get(context.Background(), "https://api.example.com")
	if fetchErr := result.Err(); fetchErr == nil || fetchErr.Kind != KindAbort {
		t.Fatalf("expected abort kind, got %+v", result.Err())
	}
}

func TestFetchClassifiesConnectivityFailure(t *testing.T) {
	cause := &url.Error{Op: "Get", URL: "https://api.example.com", Err: errors.New("connection refused")}
	client := New(stubTransport{err: cause}, nil)

	result := client.Get(context.Background(), "https://api.example.com")
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindType {
		t.Fatalf("expected type kind, got %+v", fetchErr)
	}
	if !strings.Contains(strings.ToLower(fetchErr.Message), "fetch") {
		t.Fatalf("expected fetch failure message, got %q", fetchErr.Message)
	}
}

func TestFetchClassifiesMalformedTarget(t *testing.T) {
	cause := &url.Error{Op: "parse", URL: "://bad", Err: errors.New("missing protocol scheme")}
	client := New(stubTransport{err: cause}, nil)

	result := client.Get(context.Background(), "://bad")
	if fetchErr := result.Err(); fetchErr == nil || fetchErr.Kind != KindSyntax {
		t.Fatalf("expected syntax kind, got %+v", result.Err())
	}
}

func TestFetchClassifiesUnknownFailure(t *testing.T) {
	client := New(stubTransport{err: errors.New("wire gremlins")}, nil)

	result := client.Get(context.Background(), "https://api.example.com")
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindUnknown {
		t.Fatalf("expected unknown kind, got %+v", fetchErr)
	}
	if fetchErr.Message != "wire gremlins" {
		t.Fatalf("original message lost: %q", fetchErr.Message)
	}
	if fetchErr.Stack == "" {
		t.Fatal("expected a captured stack for diagnostics")
	}
}

type silentError struct{}

func (silentError) Error() string { return "" }

func TestFetchUnknownFailureFallbackMessage(t *testing.T) {
	client := New(stubTransport{err: silentError{}}, nil)

	result := client.Get(context.Background(), "https://api.example.com")
	fetchErr := result.Err()
	if fetchErr == nil || fetchErr.Kind != KindUnknown {
		t.Fatalf("expected unknown kind, got %+v", fetchErr)
	}
	if fetchErr.Message != "Unknown error" {
		t.Fatalf("expected generic fallback, got %q", fetchErr.Message)
	}
}

func TestFetchAgainstLiveServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name":"value","email":"x@example.com"}`))
		case "/broken":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name":`))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"Server error"}`))
		}
	}))
	defer srv.Close()

	client := New(httpclient.NewRestyClient(5*time.Second), nil)

	ok := client.Get(context.Background(), srv.URL+"/users/1")
	if ok.IsErr() {
		t.Fatalf("live fetch failed: %v", ok.Err())
	}
	want := map[string]any{"name": "value", "email": "x@example.com"}
	if !reflect.DeepEqual(ok.Value(), want) {
		t.Fatalf("value mismatch: %v", ok.Value())
	}

	broken := client.Get(context.Background(), srv.URL+"/broken")
	if fetchErr := broken.Err(); fetchErr == nil || fetchErr.Kind != KindPayload {
		t.Fatalf("expected payload error, got %+v", broken.Err())
	}

	failed := client.Get(context.Background(), srv.URL+"/missing")
	fetchErr := failed.Err()
	if fetchErr == nil || fetchErr.Kind != KindHTTP || fetchErr.Code != 500 {
		t.Fatalf("expected http 500 error, got %+v", fetchErr)
	}
}

func TestFetchIdenticalCallsYieldIdenticalResults(t *testing.T) {
	client := New(stubTransport{resp: jsonResponse(200, `{"name":"value"}`)}, nil)

	first := client.Get(context.Background(), "https://api.example.com/users/1")
	second := client.Get(context.Background(), "https://api.example.com/users/1")
	if !reflect.DeepEqual(first.Value(), second.Value()) || first.IsErr() != second.IsErr() {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
}

// captureTransport records the options it was handed.
type captureTransport struct {
	resp httpclient.Response
	got  *httpclient.RequestOptions
	url  *string
}

func (c captureTransport) Do(_ context.Context, url string, opts httpclient.RequestOptions) (httpclient.Response, error) {
	*c.got = opts
	*c.url = url
	return c.resp, nil
}

func TestFetchPassesOptionsThroughUnmodified(t *testing.T) {
	var got httpclient.RequestOptions
	var gotURL string
	client := New(captureTransport{resp: jsonResponse(200, `{}`), got: &got, url: &gotURL}, nil)

	result := client.Fetch(context.Background(), "https://api.example.com/users", Request{
		Method:  "POST",
		Headers: map[string]string{"Authorization": "Bearer token"},
		Query:   map[string]string{"page": "2"},
		Body:    map[string]string{"name": "value"},
	})
	if result.IsErr() {
		t.Fatalf("unexpected error: %v", result.Err())
	}
	if gotURL != "https://api.example.com/users" {
		t.Fatalf("target rewritten: %q", gotURL)
	}
	if got.Method != "POST" || got.Headers["Authorization"] != "Bearer token" || got.Query["page"] != "2" {
		t.Fatalf("options not passed through: %+v", got)
	}
	if got.Body == nil {
		t.Fatal("body dropped")
	}
}
