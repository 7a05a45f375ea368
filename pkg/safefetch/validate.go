package safefetch

import "context"

// Validator checks a decoded payload against a schema and returns the
// normalized value (validators may coerce or strip fields). A non-empty issue
// list means the payload was rejected; the normalized value is then ignored.
// Engines plug in behind this interface; see pkg/schemas for the goskema
// adapter.
type Validator interface {
	Validate(ctx context.Context, value any) (any, []Issue)
}

// applySchema runs the optional validator over a payload. With no validator
// the payload passes through untouched. Validation never partially applies:
// either the whole normalized value is returned or a validation error
// carrying the original input and one entry per violated path.
func applySchema(ctx context.Context, v Validator, payload any) (any, *Error) {
	if v == nil {
		return payload, nil
	}
	normalized, issues := v.Validate(ctx, payload)
	if len(issues) > 0 {
		return nil, newValidationError(payload, issues)
	}
	return normalized, nil
}
