package template

import "errors"

// Configuration and content-integrity failures. All of them abort the render
// for the affected recipient; none are retried.
var (
	ErrMissingBrandField = errors.New("missing brand config field")
	ErrInvalidColor      = errors.New("invalid hex color")
	ErrInvalidURL        = errors.New("invalid url")
	ErrInvalidBrandField = errors.New("invalid brand config field")
	ErrMissingSlot       = errors.New("base template is missing chat module slot")
	ErrUnresolvedTokens  = errors.New("unresolved template tokens")
	ErrTemplateNotFound  = errors.New("template not found")
)
