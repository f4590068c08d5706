package generate

import "errors"

// Static-validation failures. Every rejection names the specific construct
// that triggered it; the sentinel classifies the failure for callers.
var (
	// ErrEmptyResponse is returned when the model produced no code.
	ErrEmptyResponse = errors.New("model returned no code")

	// ErrMissingExport is returned when a required declaration is absent.
	ErrMissingExport = errors.New("missing required export")

	// ErrForbiddenPattern is returned when the candidate uses a construct
	// on the deny list.
	ErrForbiddenPattern = errors.New("forbidden construct")

	// ErrSyntax is returned when the candidate does not parse as Go.
	ErrSyntax = errors.New("syntax error")
)
