// Package provider defines the chat model provider abstraction and the
// OpenRouter implementation behind it.
package provider

import "context"

// Message is one turn handed to a provider, oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider produces an assistant reply for a conversation transcript.
type Provider interface {
	// Complete returns the assistant reply for the given transcript and the
	// upstream latency in milliseconds.
	Complete(ctx context.Context, messages []Message) (string, int64, error)

	// Name identifies the provider in message and event records.
	Name() string
}
