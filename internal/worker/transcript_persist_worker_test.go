package worker

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-constellation/internal/model"
)

type memoryStore struct {
	rows []model.ChatTranscript
	err  error
}

func (m *memoryStore) Create(t *model.ChatTranscript) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, *t)
	return nil
}

func TestHandlePersistsTranscript(t *testing.T) {
	store := &memoryStore{}
	w := NewTranscriptPersistWorker(nil, store, "q")

	body, err := json.Marshal(model.ChatTranscript{
		ID:             42,
		ConversationID: "c1",
		Role:           "assistant",
		Content:        "Wear PPE.",
		Sources:        "safety.md",
		RAGEnabled:     true,
		CreatedAt:      time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, w.handle(body))
	require.Len(t, store.rows, 1)
	assert.Zero(t, store.rows[0].ID)
	assert.Equal(t, "c1", store.rows[0].ConversationID)
	assert.Equal(t, "safety.md", store.rows[0].Sources)
	assert.True(t, store.rows[0].RAGEnabled)
}

func TestHandleRejectsBadPayloads(t *testing.T) {
	w := NewTranscriptPersistWorker(nil, &memoryStore{}, "q")

	assert.ErrorIs(t, w.handle([]byte("{not json")), ErrInvalidTranscript)
	assert.ErrorIs(t, w.handle([]byte(`{"role":"user","content":"x"}`)), ErrInvalidTranscript)
}

func TestHandlePropagatesStoreError(t *testing.T) {
	boom := errors.New("mysql down")
	w := NewTranscriptPersistWorker(nil, &memoryStore{err: boom}, "q")

	err := w.handle([]byte(`{"conversation_id":"c1","role":"user","content":"x"}`))
	assert.ErrorIs(t, err, boom)
}

func TestCloseWithoutStart(t *testing.T) {
	NewTranscriptPersistWorker(nil, &memoryStore{}, "q").Close()
}
