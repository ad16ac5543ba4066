package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/provider"
	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/store/sqlite"
)

type fakeProvider struct {
	reply    string
	err      error
	received [][]provider.Message
}

func (f *fakeProvider) Complete(_ context.Context, msgs []provider.Message) (string, int64, error) {
	f.received = append(f.received, msgs)
	if f.err != nil {
		return "", 0, f.err
	}
	return f.reply, 42, nil
}

func (f *fakeProvider) Name() string { return "openrouter" }

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "ampline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestChatService_NewConversation(t *testing.T) {
	st := newTestStore(t)
	fp := &fakeProvider{reply: "The jacket runs true to size."}
	svc := NewChatService(st, fp, "be concise")
	ctx := context.Background()

	res, err := svc.HandleMessage(ctx, "cmp-1", "alice@example.com", "tok-1", "Does it run small?", "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ConversationID)
	assert.Equal(t, "The jacket runs true to size.", res.Reply)
	assert.Equal(t, int64(42), res.LatencyMs)

	// transcript handed to the provider: system prompt then the user turn
	require.Len(t, fp.received, 1)
	require.Len(t, fp.received[0], 2)
	assert.Equal(t, model.RoleSystem, fp.received[0][0].Role)
	assert.Equal(t, "be concise", fp.received[0][0].Content)
	assert.Equal(t, "Does it run small?", fp.received[0][1].Content)

	msgs, err := st.Messages().ListByConversation(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "inbox", msgs[0].Provider)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "openrouter", msgs[1].Provider)
	require.NotNil(t, msgs[1].LatencyMs)
	assert.Equal(t, int64(42), *msgs[1].LatencyMs)
}

func TestChatService_ContinuesConversation(t *testing.T) {
	st := newTestStore(t)
	fp := &fakeProvider{reply: "Sure thing."}
	svc := NewChatService(st, fp, "be concise")
	ctx := context.Background()

	first, err := svc.HandleMessage(ctx, "cmp-1", "alice@example.com", "tok-1", "hi", "")
	require.NoError(t, err)
	second, err := svc.HandleMessage(ctx, "cmp-1", "alice@example.com", "tok-1", "and shipping?", first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	// second provider call carries the whole history
	require.Len(t, fp.received, 2)
	assert.Len(t, fp.received[1], 4)

	msgs, err := st.Messages().ListByConversation(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestChatService_OwnershipMismatch(t *testing.T) {
	st := newTestStore(t)
	svc := NewChatService(st, &fakeProvider{reply: "ok"}, "p")
	ctx := context.Background()

	res, err := svc.HandleMessage(ctx, "cmp-1", "alice@example.com", "tok-1", "hi", "")
	require.NoError(t, err)

	_, err = svc.HandleMessage(ctx, "cmp-2", "alice@example.com", "tok-1", "hi", res.ConversationID)
	assert.ErrorIs(t, err, ErrConversationMismatch)

	_, err = svc.HandleMessage(ctx, "cmp-1", "mallory@example.com", "tok-1", "hi", res.ConversationID)
	assert.ErrorIs(t, err, ErrConversationMismatch)
}

func TestChatService_UnknownConversation(t *testing.T) {
	st := newTestStore(t)
	svc := NewChatService(st, &fakeProvider{reply: "ok"}, "p")

	_, err := svc.HandleMessage(context.Background(), "cmp-1", "alice@example.com", "tok-1", "hi", "missing-convo")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestChatService_ProviderFailureLeavesUserTurn(t *testing.T) {
	st := newTestStore(t)
	svc := NewChatService(st, &fakeProvider{err: assert.AnError}, "p")
	ctx := context.Background()

	_, err := svc.HandleMessage(ctx, "cmp-1", "alice@example.com", "tok-1", "hi", "")
	require.Error(t, err)

	convos, err := st.Conversations().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, convos, 1)
	msgs, err := st.Messages().ListByConversation(ctx, convos[0].ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
}

func TestNormalizeAssistantReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   \n  ", emptyReplyFallback},
		{"strips code fences", "```\nuse size M\n```", "use size M"},
		{"strips bold", "It is **water resistant**.", "It is water resistant."},
		{"strips list prefixes", "- first\n- second", "first second"},
		{"strips headings", "## Sizing\nRuns large.", "Sizing Runs large."},
		{"collapses whitespace", "a  b\n\n\n\nc", "a b c"},
		{"windows newlines", "one\r\ntwo", "one two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAssistantReply(tt.in))
		})
	}
}

func TestNormalizeAssistantReply_Caps(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := normalizeAssistantReply(long)
	assert.LessOrEqual(t, len([]rune(got)), maxAssistantReplyChars)
	assert.True(t, strings.HasSuffix(got, "…"))

	manyLines := strings.Repeat("line\n", 10)
	assert.Equal(t, "line line line line line line", normalizeAssistantReply(manyLines))
}
