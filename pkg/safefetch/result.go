package safefetch

// Result holds the outcome of a fetch: either a classified error or a decoded
// payload, never both. The slots are private so the mutual exclusion cannot be
// broken by callers; a Result is built once at a return point and never
// mutated afterwards.
type Result struct {
	err   *Error
	value any
}

func success(v any) Result    { return Result{value: v} }
func failure(e *Error) Result { return Result{err: e} }

// Err returns the classified error, or nil on success.
func (r Result) Err() *Error { return r.err }

// Value returns the decoded (and possibly schema-normalized) payload. It is
// nil whenever Err is non-nil.
func (r Result) Value() any {
	if r.err != nil {
		return nil
	}
	return r.value
}

// IsErr reports whether the result carries an error.
func (r Result) IsErr() bool { return r.err != nil }

// Unwrap returns both slots at once for callers preferring the usual Go shape.
func (r Result) Unwrap() (any, *Error) { return r.Value(), r.err }
