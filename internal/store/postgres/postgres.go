// Package postgres implements the store interfaces on PostgreSQL using the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "embed"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/store"
)

//go:embed schema.sql
var ddlFile string

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the embedded DDL. Statements are idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(ddlFile, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// New opens the given DSN, ensures the schema, and returns a store.Store.
func New(ctx context.Context, dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Brands() store.Brands               { return &brands{db: s.db} }
func (s *pgStore) Campaigns() store.Campaigns         { return &campaigns{db: s.db} }
func (s *pgStore) Recipients() store.Recipients       { return &recipients{db: s.db} }
func (s *pgStore) Conversations() store.Conversations { return &conversations{db: s.db} }
func (s *pgStore) Messages() store.Messages           { return &messages{db: s.db} }
func (s *pgStore) Events() store.Events               { return &events{db: s.db} }
func (s *pgStore) Renders() store.Renders             { return &renders{db: s.db} }

func (s *pgStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *pgStore) Close() error                         { return s.db.Close() }

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
        INSERT INTO brands (brand_id, name, config_path)
        VALUES ($1,$2,$3)
        ON CONFLICT (brand_id) DO UPDATE SET name=EXCLUDED.name, config_path=EXCLUDED.config_path
    `, m.BrandID, m.Name, m.ConfigPath)
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
	status := m.Status
	if status == "" {
		status = model.CampaignStatusDraft
	}
	var created time.Time
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO campaigns (campaign_id, brand_id, name, subject, from_email, reply_to, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING creation_time
    `, m.CampaignID, m.BrandID, m.Name, m.Subject, m.FromEmail, m.ReplyTo, status)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.Status = status
	out.CreationTime = created
	return &out, nil
}

func (c *campaigns) GetByID(ctx context.Context, campaignID string) (*model.Campaign, error) {
	var m model.Campaign
	row := c.db.QueryRowContext(ctx, `
        SELECT campaign_id, brand_id, name, subject, from_email, reply_to, status, creation_time
        FROM campaigns WHERE campaign_id=$1
    `, campaignID)
	if err := row.Scan(&m.CampaignID, &m.BrandID, &m.Name, &m.Subject, &m.FromEmail, &m.ReplyTo, &m.Status, &m.CreationTime); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (c *campaigns) List(ctx context.Context, limit int) ([]*model.Campaign, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT campaign_id, brand_id, name, subject, from_email, reply_to, status, creation_time
        FROM campaigns ORDER BY creation_time DESC LIMIT $1
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
	res, err := c.db.ExecContext(ctx, `UPDATE campaigns SET status=$1 WHERE campaign_id=$2`, status, campaignID)
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
	var id int64
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO campaign_recipients (campaign_id, email, first_name, token_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id
    `, m.CampaignID, m.Email, m.FirstName, m.TokenID)
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	return &out, nil
}

func (r *recipients) ListByCampaign(ctx context.Context, campaignID string) ([]*model.CampaignRecipient, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, campaign_id, email, first_name, token_id, sent_at
        FROM campaign_recipients WHERE campaign_id=$1 ORDER BY id
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
        FROM campaign_recipients WHERE campaign_id=$1 AND email=$2 AND token_id=$3
    `, campaignID, email, tokenID)
	if err := row.Scan(&m.ID, &m.CampaignID, &m.Email, &m.FirstName, &m.TokenID, &m.SentAt); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *recipients) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE campaign_recipients SET sent_at=$1 WHERE id=$2`, at.UTC(), id)
	return err
}

// --- Conversations ---

type conversations struct{ db *sql.DB }

func (c *conversations) Create(ctx context.Context, m *model.Conversation) (*model.Conversation, error) {
	var created time.Time
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO conversations (conversation_id, campaign_id, recipient_email, token_id)
        VALUES ($1,$2,$3,$4)
        RETURNING creation_time
    `, m.ConversationID, m.CampaignID, m.RecipientEmail, m.TokenID)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.CreationTime = created
	out.LastMessageAt = created
	return &out, nil
}

func (c *conversations) GetByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	var m model.Conversation
	row := c.db.QueryRowContext(ctx, `
        SELECT conversation_id, campaign_id, recipient_email, token_id, creation_time, last_message_at
        FROM conversations WHERE conversation_id=$1
    `, conversationID)
	if err := row.Scan(&m.ConversationID, &m.CampaignID, &m.RecipientEmail, &m.TokenID, &m.CreationTime, &m.LastMessageAt); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (c *conversations) ListRecent(ctx context.Context, limit int) ([]*model.Conversation, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT conversation_id, campaign_id, recipient_email, token_id, creation_time, last_message_at
        FROM conversations ORDER BY last_message_at DESC LIMIT $1
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
	_, err := c.db.ExecContext(ctx, `UPDATE conversations SET last_message_at=$1 WHERE conversation_id=$2`, at.UTC(), conversationID)
	return err
}

// --- Messages ---

type messages struct{ db *sql.DB }

func (m *messages) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	var (
		id      int64
		created time.Time
	)
	row := m.db.QueryRowContext(ctx, `
        INSERT INTO messages (conversation_id, role, content, provider, latency_ms)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, creation_time
    `, msg.ConversationID, msg.Role, msg.Content, msg.Provider, msg.LatencyMs)
	if err := row.Scan(&id, &created); err != nil {
		return nil, err
	}
	out := *msg
	out.ID = id
	out.CreationTime = created
	return &out, nil
}

func (m *messages) ListByConversation(ctx context.Context, conversationID string) ([]*model.Message, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT id, conversation_id, role, content, provider, latency_ms, creation_time
        FROM messages WHERE conversation_id=$1 ORDER BY creation_time ASC, id ASC
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
        FROM messages WHERE conversation_id=$1 ORDER BY creation_time DESC, id DESC LIMIT 1
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
        INSERT INTO events (campaign_id, conversation_id, event_type, payload_json)
        VALUES ($1,$2,$3,$4)
    `, nullIfEmpty(ev.CampaignID), nullIfEmpty(ev.ConversationID), ev.EventType, payload)
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
        INSERT INTO template_renders (campaign_id, brand_id, template_version)
        VALUES ($1,$2,$3)
    `, m.CampaignID, m.BrandID, version)
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
