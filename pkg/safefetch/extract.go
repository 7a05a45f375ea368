package safefetch

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/samvad-hq/safefetch/pkg/httpclient"
)

const parseFailureMessage = "Failed to parse response"

// extractPayload decodes the response body with the parser chosen by
// routeContentType. Malformed bodies become a payload error carrying the
// declared content type and the attempted parser; anything unexpected becomes
// an unknown error so unrelated bugs are not swallowed under a parse label.
func extractPayload(resp httpclient.Response, parser Parser, contentType *string) (any, *Error) {
	body := resp.Body()

	switch parser {
	case ParserText:
		return string(body), nil

	case ParserJSON:
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, classifyExtractionError(err, contentType, parser)
		}
		return v, nil

	case ParserFormData:
		values, err := parseFormBody(body, contentType)
		if err != nil {
			return nil, classifyExtractionError(err, contentType, parser)
		}
		return values, nil

	case ParserBlob:
		blob := make([]byte, len(body))
		copy(blob, body)
		return blob, nil

	default:
		return nil, newUnknownError(errors.New("no parser selected for extraction"))
	}
}

// parseFormBody decodes either urlencoded or multipart form bodies into
// url.Values. Multipart file parts are kept as their raw content string.
func parseFormBody(body []byte, contentType *string) (url.Values, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return url.Values{}, nil
	}

	declared := ""
	if contentType != nil {
		declared = *contentType
	}
	mediaType, params, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(declared))
	}

	if mediaType == "multipart/form-data" {
		boundary, ok := params["boundary"]
		if !ok {
			return nil, errors.New("multipart body without boundary parameter")
		}
		return parseMultipartBody(body, boundary)
	}

	return url.ParseQuery(strings.TrimSpace(string(body)))
}

func parseMultipartBody(body []byte, boundary string) (url.Values, error) {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	values := url.Values{}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(part)
		if err != nil {
			return nil, err
		}
		name := part.FormName()
		if name == "" {
			continue
		}
		values.Add(name, string(content))
	}
	return values, nil
}

// classifyExtractionError separates known decode failures from everything
// else. JSON syntax and shape errors, bad form encodings and malformed
// multipart sections are parse failures; any other failure is kept verbatim
// as unknown, message and stack intact.
func classifyExtractionError(err error, contentType *string, parser Parser) *Error {
	if isParseFailure(err) {
		return newPayloadError(parseFailureMessage, contentType, parser)
	}
	return newUnknownError(err)
}

func isParseFailure(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	var escapeErr url.EscapeError
	if errors.As(err, &escapeErr) {
		return true
	}
	// multipart reports framing problems as plain errors, so match on the
	// package prefix it uses.
	msg := err.Error()
	return strings.Contains(msg, "multipart:") ||
		strings.Contains(msg, "malformed MIME header") ||
		strings.Contains(msg, "invalid semicolon separator")
}
