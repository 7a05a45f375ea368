package safefetch

import (
	"mime"
	"strings"
)

// Parser names the body-decoding strategy selected for a response.
type Parser string

const (
	ParserText     Parser = "text"
	ParserFormData Parser = "formData"
	ParserJSON     Parser = "json"
	ParserBlob     Parser = "blob"
)

// contentTypeRule maps a media-type predicate to a parser. Rules are checked
// in order and the first match wins, so json stays ahead of the broader
// text/xml rules.
type contentTypeRule struct {
	match  func(mediaType string) bool
	parser Parser
}

var contentTypeRules = []contentTypeRule{
	{match: equalsAny("application/json"), parser: ParserJSON},
	{match: equalsAny("text/plain", "text/html", "application/xml"), parser: ParserText},
	{match: equalsAny("multipart/form-data", "application/x-www-form-urlencoded"), parser: ParserFormData},
	{match: func(mt string) bool { return strings.HasPrefix(mt, "image/") }, parser: ParserBlob},
}

func equalsAny(types ...string) func(string) bool {
	return func(mt string) bool {
		for _, t := range types {
			if mt == t {
				return true
			}
		}
		return false
	}
}

// routeContentType selects the parser for a declared Content-Type header
// value. Parameters such as charset are ignored. It reports false when the
// media type matches none of the routed categories: an unknown format is a
// typed failure, never a guess.
func routeContentType(contentType string) (Parser, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, rule := range contentTypeRules {
		if rule.match(mediaType) {
			return rule.parser, true
		}
	}
	return "", false
}
