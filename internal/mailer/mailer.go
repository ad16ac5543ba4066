// Package mailer delivers rendered campaign emails over SMTP as
// multipart/alternative messages carrying plain text, HTML, and AMP parts.
package mailer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned when no SMTP host is set.
var ErrNotConfigured = errors.New("mailer: SMTP host not configured")

// typeTextAMP is the MIME type AMP-capable inboxes look for.
const typeTextAMP = mail.ContentType("text/x-amp-html")

// Email is one fully rendered outbound message.
type Email struct {
	From     string
	ReplyTo  string
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	AMPBody  string
}

// Config carries the SMTP settings for the mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Retries  int
}

// Sender delivers emails. Services depend on this interface so tests can
// substitute a recording fake.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPMailer sends through a single SMTP relay with bounded retries.
type SMTPMailer struct {
	cfg Config
}

// New returns an SMTPMailer for cfg.
func New(cfg Config) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

// Send implements Sender. Transient delivery failures are retried with
// exponential backoff starting at 500ms.
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if m.cfg.Host == "" {
		return ErrNotConfigured
	}

	msg, err := BuildMessage(email)
	if err != nil {
		return err
	}

	client, err := m.newClient()
	if err != nil {
		return err
	}

	op := func() error {
		return client.DialAndSendWithContext(ctx, msg)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(m.cfg.Retries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return errors.Wrapf(err, "send to %s failed", email.To)
	}
	return nil
}

func (m *SMTPMailer) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}
	if m.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "build SMTP client")
	}
	return client, nil
}

// BuildMessage assembles the multipart/alternative message. Parts are ordered
// least to most capable: text, HTML, then AMP, so AMP-aware inboxes pick the
// interactive variant and everything else degrades cleanly.
func BuildMessage(email Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return nil, errors.Wrap(err, "invalid from address")
	}
	if err := msg.To(email.To); err != nil {
		return nil, errors.Wrap(err, "invalid to address")
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, errors.Wrap(err, "invalid reply-to address")
		}
	}
	msg.Subject(email.Subject)

	msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	if email.AMPBody != "" {
		msg.AddAlternativeString(typeTextAMP, email.AMPBody)
	}
	return msg, nil
}
