package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-constellation/internal/model"
)

type memoryHistory struct {
	mu    sync.Mutex
	turns map[string][]model.ChatTurn
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{turns: make(map[string][]model.ChatTurn)}
}

func (h *memoryHistory) GetHistory(ctx context.Context, id string) ([]model.ChatTurn, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	turns, ok := h.turns[id]
	return turns, ok, nil
}

func (h *memoryHistory) SetHistory(ctx context.Context, id string, turns []model.ChatTurn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns[id] = turns
	return nil
}

func (h *memoryHistory) DeleteHistory(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, id)
	return nil
}

type recordingPublisher struct {
	msgs []model.ChatTranscript
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg model.ChatTranscript) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type memoryTranscripts struct {
	rows []model.ChatTranscript
}

func (m *memoryTranscripts) ListByConversationID(id string, limit int) ([]model.ChatTranscript, error) {
	var out []model.ChatTranscript
	for _, row := range m.rows {
		if row.ConversationID == id {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryTranscripts) DeleteByConversationID(id string) error {
	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.ConversationID != id {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

func TestChatSendStoresHistoryAndPublishes(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "Wear PPE."}
	svc, _ := newTestService(gen)
	history := newMemoryHistory()
	pub := &recordingPublisher{}
	chat := NewChatService(svc, history, pub, nil, 0)

	first, err := chat.Send(context.Background(), SendInput{Message: "PPE operators", RAGEnabled: true})
	require.NoError(t, err)
	require.NotEmpty(t, first.ConversationID)
	assert.Equal(t, "Wear PPE.", first.Response)
	assert.True(t, first.RAGEnabled)

	stored, hit, _ := history.GetHistory(context.Background(), first.ConversationID)
	require.True(t, hit)
	assert.Equal(t, []model.ChatTurn{
		{Role: "user", Content: "PPE operators"},
		{Role: "assistant", Content: "Wear PPE."},
	}, stored)

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "user", pub.msgs[0].Role)
	assert.Equal(t, "assistant", pub.msgs[1].Role)
	assert.Equal(t, "safety.md", pub.msgs[1].Sources)
	assert.Equal(t, first.ConversationID, pub.msgs[1].ConversationID)

	_, err = chat.Send(context.Background(), SendInput{ConversationID: first.ConversationID, Message: "and helmets?", RAGEnabled: true})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt(), "user: PPE operators\nassistant: Wear PPE.\n")

	stored, _, _ = history.GetHistory(context.Background(), first.ConversationID)
	assert.Len(t, stored, 4)
}

func TestChatSendClientHistoryWins(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "ok"}
	svc, _ := newTestService(gen)
	history := newMemoryHistory()
	require.NoError(t, history.SetHistory(context.Background(), "c1", []model.ChatTurn{{Role: "user", Content: "stored turn"}}))
	chat := NewChatService(svc, history, nil, nil, 0)

	_, err := chat.Send(context.Background(), SendInput{
		ConversationID: "c1",
		Message:        "question",
		History:        []model.ChatTurn{{Role: "user", Content: "client turn"}},
	})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt(), "client turn")
	assert.NotContains(t, gen.lastPrompt(), "stored turn")
}

func TestChatSendPublishFailureKeepsAnswer(t *testing.T) {
	svc, _ := newTestService(&fakeGenerator{configured: true, text: "ok"})
	chat := NewChatService(svc, nil, &recordingPublisher{err: errors.New("channel closed")}, nil, 0)

	res, err := chat.Send(context.Background(), SendInput{ConversationID: "c1", Message: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Response)
	assert.Equal(t, "c1", res.ConversationID)
}

func TestChatSendRejectsBlankMessage(t *testing.T) {
	svc, _ := newTestService(&fakeGenerator{configured: true})
	_, err := NewChatService(svc, nil, nil, nil, 0).Send(context.Background(), SendInput{Message: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChatHistoryFallsBackToTranscripts(t *testing.T) {
	svc, _ := newTestService(nil)
	history := newMemoryHistory()
	rows := &memoryTranscripts{rows: []model.ChatTranscript{
		{ConversationID: "c9", Role: "user", Content: "hi"},
		{ConversationID: "c9", Role: "assistant", Content: "hello"},
		{ConversationID: "other", Role: "user", Content: "x"},
	}}
	chat := NewChatService(svc, history, nil, rows, 0)

	turns, err := chat.History(context.Background(), "c9")
	require.NoError(t, err)
	assert.Equal(t, []model.ChatTurn{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}, turns)

	cached, hit, _ := history.GetHistory(context.Background(), "c9")
	assert.True(t, hit)
	assert.Equal(t, turns, cached)

	require.NoError(t, chat.ClearHistory(context.Background(), "c9"))
	_, hit, _ = history.GetHistory(context.Background(), "c9")
	assert.False(t, hit)

	_, err = chat.History(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChatClearHistoryRemovesTranscripts(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "fresh answer"}
	svc, _ := newTestService(gen)
	history := newMemoryHistory()
	rows := &memoryTranscripts{rows: []model.ChatTranscript{
		{ConversationID: "c1", Role: "user", Content: "old question"},
		{ConversationID: "c1", Role: "assistant", Content: "old answer"},
		{ConversationID: "c2", Role: "user", Content: "kept"},
	}}
	chat := NewChatService(svc, history, nil, rows, 20)

	_, err := chat.History(context.Background(), "c1")
	require.NoError(t, err)

	require.NoError(t, chat.ClearHistory(context.Background(), "c1"))

	turns, err := chat.History(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, turns)
	_, hit, _ := history.GetHistory(context.Background(), "c1")
	assert.False(t, hit)

	_, err = chat.Send(context.Background(), SendInput{ConversationID: "c1", Message: "new question", RAGEnabled: true})
	require.NoError(t, err)
	assert.NotContains(t, gen.lastPrompt(), "old question")

	others, err := chat.History(context.Background(), "c2")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

type failingTranscripts struct{ memoryTranscripts }

func (f *failingTranscripts) DeleteByConversationID(id string) error {
	return errors.New("mysql down")
}

func TestChatClearHistoryKeepsCacheWhenTranscriptDeleteFails(t *testing.T) {
	svc, _ := newTestService(nil)
	history := newMemoryHistory()
	require.NoError(t, history.SetHistory(context.Background(), "c1", []model.ChatTurn{{Role: "user", Content: "hi"}}))
	chat := NewChatService(svc, history, nil, &failingTranscripts{}, 0)

	assert.Error(t, chat.ClearHistory(context.Background(), "c1"))
	_, hit, _ := history.GetHistory(context.Background(), "c1")
	assert.True(t, hit)
}
