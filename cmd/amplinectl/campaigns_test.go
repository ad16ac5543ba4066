package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRecipients(t *testing.T) {
	raw := "alice@example.com, Alice\nbob@example.com\n\n  \ncarol@example.com,\n"
	got := parseRecipients(raw)

	assert.Equal(t, []map[string]string{
		{"email": "alice@example.com", "first_name": "Alice"},
		{"email": "bob@example.com", "first_name": "there"},
		{"email": "carol@example.com", "first_name": "there"},
	}, got)
}

func TestParseRecipientsEmpty(t *testing.T) {
	assert.Empty(t, parseRecipients("\n  \n"))
}
