package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmail() Email {
	return Email{
		From:     "offers@acme-outfitters.example.com",
		ReplyTo:  "support@acme-outfitters.example.com",
		To:       "alice@example.com",
		Subject:  "The spring drop is live",
		TextBody: "Hi Alice,\n\nSpring has landed.",
		HTMLBody: "<!DOCTYPE html><html><body>Spring has landed.</body></html>",
		AMPBody:  "<!doctype html><html ⚡4email><body>Spring has landed.</body></html>",
	}
}

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage(testEmail())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "Subject: The spring drop is live")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "text/x-amp-html")

	// AMP part must come after the HTML part so capable clients pick it
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("text/html")), bytes.Index(buf.Bytes(), []byte("text/x-amp-html")))
}

func TestBuildMessageOmitsEmptyAMPPart(t *testing.T) {
	email := testEmail()
	email.AMPBody = ""
	msg, err := BuildMessage(email)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "text/x-amp-html")
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	email := testEmail()
	email.To = "not-an-address"
	_, err := BuildMessage(email)
	assert.Error(t, err)
}

func TestSendRequiresHost(t *testing.T) {
	m := New(Config{})
	err := m.Send(context.Background(), testEmail())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
