// Package sqlite implements the store interfaces on a local SQLite database.
// It is the default driver for demo deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"

	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/store"
)

//go:embed schema.sql
var ddlFile string

// Open opens (or creates) a SQLite database at the given path, enables WAL
// journal mode, and applies the schema.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func applySchema(db *sql.DB) error {
	for _, stmt := range strings.Split(ddlFile, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// New opens the database at path and returns a store.Store backed by it.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a SQLite store over an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Brands() store.Brands               { return &brands{db: s.db} }
func (s *sqliteStore) Campaigns() store.Campaigns         { return &campaigns{db: s.db} }
func (s *sqliteStore) Recipients() store.Recipients       { return &recipients{db: s.db} }
func (s *sqliteStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *sqliteStore) Messages() store.Messages           { return &messages{db: s.db} }
func (s *sqliteStore) Events() store.Events               { return &events{db: s.db} }
func (s *sqliteStore) Renders() store.Renders             { return &renders{db: s.db} }

func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *sqliteStore) Close() error                         { return s.db.Close() }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

// --- Brands ---

type brands struct{ db *sql.DB }

func (b *brands) Upsert(ctx context.Context, m *model.Brand) error {
	_, err := b.db.ExecContext(ctx, `
        INSERT INTO brands (brand_id, name, config_path, creation_time)
        VALUES (?,?,?,?)
        ON CONFLICT(brand_id) DO UPDATE SET name=excluded.name, config_path=excluded.config_path
    `, m.BrandID, m.Name, m.ConfigPath, time.Now().UTC())
	return err
}

func (b *brands) List(ctx context.Context) ([]*model.Brand, error) {
	rows, err := b.db.QueryContext(ctx, `
        SELECT brand_id, name, config_path, creation_time FROM brands ORDER BY brand_id
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Brand
	for rows.Next() {
		var m model.Brand
		if err := rows.Scan(&m.BrandID, &m.Name, &m.ConfigPath, &m.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// --- Campaigns ---

type campaigns struct{ db *sql.DB }

func (c *campaigns) Create(ctx context.Context, m *model.Campaign) (*model.Campaign, error) {
	now := time.Now().UTC()
	status := m.Status
	if status == "" {
		status = model.CampaignStatusDraft
	}
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO campaigns (campaign_id, brand_id, name, subject, from_email, reply_to, status, creation_time)
        VALUES (?,?,?,?,?,?,?,?)
    `, m.CampaignID, m.BrandID, m.Name, m.Subject, m.FromEmail, m.ReplyTo, status, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.Status = status
	out.CreationTime = now
	return &out, nil
}

func (c *campaigns) GetByID(ctx context.Context, campaignID string) (*model.Campaign, error) {
	var m model.Campaign
	row := c.db.QueryRowContext(ctx, `
        SELECT campaign_id, brand_id, name, subject, from_email, reply_to, status, creation_time
        FROM campaigns WHERE campaign_id=?
    `, campaignID)
	if err := row.Scan(&m.CampaignID, &m.BrandID, &m.Name, &m.Subject, &m.FromEmail, &m.ReplyTo, &m.Status, &m.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (c *campaigns) List(ctx context.Context, limit int) ([]*model.Campaign, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT campaign_id, brand_id, name, subject, from_email, reply_to, status, creation_time
        FROM campaigns ORDER BY creation_time DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Campaign
	for rows.Next() {
		var m model.Campaign
		if err := rows.Scan(&m.CampaignID, &m.BrandID, &m.Name, &m.Subject, &m.FromEmail, &m.ReplyTo, &m.Status, &m.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (c *campaigns) UpdateStatus(ctx context.Context, campaignID, status string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE campaigns SET status=? WHERE campaign_id=?`, status, campaignID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Recipients ---

type recipients struct{ db *sql.DB }

func (r *recipients) Add(ctx context.Context, m *model.CampaignRecipient) (*model.CampaignRecipient, error) {
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO campaign_recipients (campaign_id, email, first_name, token_id)
        VALUES (?,?,?,?)
    `, m.CampaignID, m.Email, m.FirstName, m.TokenID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	return &out, nil
}

func (r *recipients) ListByCampaign(ctx context.Context, campaignID string) ([]*model.CampaignRecipient, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, campaign_id, email, first_name, token_id, sent_at
        FROM campaign_recipients WHERE campaign_id=? ORDER BY id
    `, campaignID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.CampaignRecipient
	for rows.Next() {
		var m model.CampaignRecipient
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.Email, &m.FirstName, &m.TokenID, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *recipients) Match(ctx context.Context, campaignID, email, tokenID string) (*model.CampaignRecipient, error) {
	var m model.CampaignRecipient
	row := r.db.QueryRowContext(ctx, `
        SELECT id, campaign_id, email, first_name, token_id, sent_at
        FROM campaign_recipients WHERE campaign_id=? AND email=? AND token_id=?
    `, campaignID, email, tokenID)
	if err := row.Scan(&m.ID, &m.CampaignID, &m.Email, &m.FirstName, &m.TokenID, &m.SentAt); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *recipients) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE campaign_recipients SET sent_at=? WHERE id=?`, at.UTC(), id)
	return err
}

// --- Conversations ---

type conversations struct{ db *sql.DB }

func (c *conversations) Create(ctx context.Context, m *model.Conversation) (*model.Conversation, error) {
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO conversations (conversation_id, campaign_id, recipient_email, token_id, creation_time, last_message_at)
        VALUES (?,?,?,?,?,?)
    `, m.ConversationID, m.CampaignID, m.RecipientEmail, m.TokenID, now, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.CreationTime = now
	out.LastMessageAt = now
	return &out, nil
}

func (c *conversations) GetByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	var m model.Conversation
	row := c.db.QueryRowContext(ctx, `
        SELECT conversation_id, campaign_id, recipient_email, token_id, creation_time, last_message_at
        FROM conversations WHERE conversation_id=?
    `, conversationID)
	if err := row.Scan(&m.ConversationID, &m.CampaignID, &m.RecipientEmail, &m.TokenID, &m.CreationTime, &m.LastMessageAt); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (c *conversations) ListRecent(ctx context.Context, limit int) ([]*model.Conversation, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT conversation_id, campaign_id, recipient_email, token_id, creation_time, last_message_at
        FROM conversations ORDER BY last_message_at DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Conversation
	for rows.Next() {
		var m model.Conversation
		if err := rows.Scan(&m.ConversationID, &m.CampaignID, &m.RecipientEmail, &m.TokenID, &m.CreationTime, &m.LastMessageAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (c *conversations) TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error {
	_, err := c.db.ExecContext(ctx, `UPDATE conversations SET last_message_at=? WHERE conversation_id=?`, at.UTC(), conversationID)
	return err
}

// --- Messages ---

type messages struct{ db *sql.DB }

func (m *messages) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	now := time.Now().UTC()
	res, err := m.db.ExecContext(ctx, `
        INSERT INTO messages (conversation_id, role, content, provider, latency_ms, creation_time)
        VALUES (?,?,?,?,?,?)
    `, msg.ConversationID, msg.Role, msg.Content, msg.Provider, msg.LatencyMs, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *msg
	out.ID = id
	out.CreationTime = now
	return &out, nil
}

func (m *messages) ListByConversation(ctx context.Context, conversationID string) ([]*model.Message, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT id, conversation_id, role, content, provider, latency_ms, creation_time
        FROM messages WHERE conversation_id=? ORDER BY creation_time ASC, id ASC
    `, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Provider, &msg.LatencyMs, &msg.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &msg)
	}
	return out, rows.Err()
}

func (m *messages) LastByConversation(ctx context.Context, conversationID string) (*model.Message, error) {
	var msg model.Message
	row := m.db.QueryRowContext(ctx, `
        SELECT id, conversation_id, role, content, provider, latency_ms, creation_time
        FROM messages WHERE conversation_id=? ORDER BY creation_time DESC, id DESC LIMIT 1
    `, conversationID)
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Provider, &msg.LatencyMs, &msg.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}

// --- Events ---

type events struct{ db *sql.DB }

func (e *events) Append(ctx context.Context, ev *model.Event) error {
	payload := ev.PayloadJSON
	if payload == "" {
		payload = "{}"
	}
	_, err := e.db.ExecContext(ctx, `
        INSERT INTO events (campaign_id, conversation_id, event_type, payload_json, creation_time)
        VALUES (?,?,?,?,?)
    `, nullIfEmpty(ev.CampaignID), nullIfEmpty(ev.ConversationID), ev.EventType, payload, time.Now().UTC())
	return err
}

// --- Renders ---

type renders struct{ db *sql.DB }

func (r *renders) Record(ctx context.Context, m *model.TemplateRender) error {
	version := m.TemplateVersion
	if version == "" {
		version = "v1"
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO template_renders (campaign_id, brand_id, template_version, rendered_at)
        VALUES (?,?,?,?)
    `, m.CampaignID, m.BrandID, version, time.Now().UTC())
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
