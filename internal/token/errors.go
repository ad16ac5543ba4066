package token

import "errors"

// Verification failures. Handlers must surface all of these to external
// clients as one generic unauthorized response so the failing check is not
// leaked.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrMissingClaims    = errors.New("missing required claims")
	ErrTokenExpired     = errors.New("token expired")
)

// Issuance failures.
var (
	ErrEmptyCampaign  = errors.New("campaign id must not be empty")
	ErrEmptyRecipient = errors.New("recipient must not be empty")
)
