// Package schemas adapts external validation engines to the safefetch
// Validator interface.
package schemas

import (
	"context"
	"strings"

	goskema "github.com/reoring/goskema"

	"github.com/samvad-hq/safefetch/pkg/safefetch"
)

// Goskema wraps a goskema schema so it can gate fetch payloads. The schema's
// normalized output (defaults applied, unknown keys handled per its policy)
// becomes the result value on success.
func Goskema[T any](s goskema.Schema[T]) safefetch.Validator {
	return goskemaValidator[T]{schema: s}
}

type goskemaValidator[T any] struct {
	schema goskema.Schema[T]
}

func (g goskemaValidator[T]) Validate(ctx context.Context, value any) (any, []safefetch.Issue) {
	out, err := g.schema.Parse(ctx, value)
	if err == nil {
		return out, nil
	}

	if iss, ok := goskema.AsIssues(err); ok {
		converted := make([]safefetch.Issue, 0, len(iss))
		for _, it := range iss {
			msg := it.Message
			if msg == "" {
				msg = it.Code
			}
			converted = append(converted, safefetch.Issue{Path: dotPath(it.Path), Message: msg})
		}
		return nil, converted
	}
	return nil, []safefetch.Issue{{Message: err.Error()}}
}

// dotPath rewrites a JSON Pointer (/items/2/price) as a dot-joined field path
// (items.2.price), unescaping pointer tokens along the way.
func dotPath(pointer string) string {
	trimmed := strings.TrimPrefix(pointer, "/")
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		segments[i] = seg
	}
	return strings.Join(segments, ".")
}
