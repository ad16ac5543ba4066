// Package token issues and verifies the capability tokens that authorize
// anonymous AMP email clients to call the chat endpoint. A token binds a
// campaign, a recipient, and a per-recipient token identity into a
// tamper-evident, time-bounded credential: base64url(payload).base64url(sig)
// where sig is HMAC-SHA256 over the exact payload bytes.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Claims carries the five required token claims. Field order matches the
// lexicographic key order of the canonical JSON payload so that marshaling
// a Claims value reproduces the signed bytes exactly.
type Claims struct {
	CampaignID string `json:"campaign_id"`
	ExpiresAt  int64  `json:"exp"`
	IssuedAt   int64  `json:"iat"`
	Recipient  string `json:"recipient"`
	TokenID    string `json:"token_id"`
}

var requiredClaims = []string{"campaign_id", "exp", "iat", "recipient", "token_id"}

// Signer signs and verifies capability tokens with a process-wide secret.
// It performs no I/O and is safe for concurrent use.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a Signer using the given secret and the wall clock.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// NewSignerWithClock returns a Signer with an injected clock. Tests use this
// to pin issuance time.
func NewSignerWithClock(secret string, now func() time.Time) *Signer {
	return &Signer{secret: []byte(secret), now: now}
}

// Issue creates a signed token for the given campaign and recipient. An empty
// tokenID generates a fresh UUID. Negative TTLs are permitted and produce an
// already-expired token.
func (s *Signer) Issue(campaignID, recipient, tokenID string, ttlSeconds int64) (string, error) {
	if campaignID == "" {
		return "", ErrEmptyCampaign
	}
	if recipient == "" {
		return "", ErrEmptyRecipient
	}
	if tokenID == "" {
		tokenID = uuid.New().String()
	}

	now := s.now().Unix()
	claims := Claims{
		CampaignID: campaignID,
		ExpiresAt:  now + ttlSeconds,
		IssuedAt:   now,
		Recipient:  recipient,
		TokenID:    tokenID,
	}
	payload, err := json.Marshal(&claims)
	if err != nil {
		return "", err
	}
	sig := s.sign(payload)
	return b64(payload) + "." + b64(sig), nil
}

// Verify checks the token's structure, signature, payload, claims, and
// expiry, in that order. A token whose exp equals the current time is
// already invalid. On success the claims are returned unchanged.
func (s *Signer) Verify(tok string) (*Claims, error) {
	payloadPart, sigPart, found := strings.Cut(tok, ".")
	if !found {
		return nil, ErrMalformedToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, ErrMalformedToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, ErrMalformedToken
	}

	if !hmac.Equal(sig, s.sign(payload)) {
		return nil, ErrInvalidSignature
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, ErrInvalidPayload
	}
	for _, key := range requiredClaims {
		if _, ok := raw[key]; !ok {
			return nil, ErrMissingClaims
		}
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidPayload
	}
	if s.now().Unix() >= claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

func (s *Signer) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

func b64(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}
