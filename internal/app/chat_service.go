package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"career-constellation/internal/model"
)

const defaultMaxStoredTurns = 20

type TranscriptPublisher interface {
	Publish(ctx context.Context, msg model.ChatTranscript) error
}

type TranscriptStore interface {
	ListByConversationID(conversationID string, limit int) ([]model.ChatTranscript, error)
	DeleteByConversationID(conversationID string) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID string) ([]model.ChatTurn, bool, error)
	SetHistory(ctx context.Context, conversationID string, turns []model.ChatTurn) error
	DeleteHistory(ctx context.Context, conversationID string) error
}

type SendInput struct {
	ConversationID string
	Message        string
	History        []model.ChatTurn
	RAGEnabled     bool
}

type SendResult struct {
	ChatResponse
	ConversationID string `json:"conversation_id"`
}

// ChatService keeps per-conversation history around RAGService. The cache,
// publisher and transcript reader are optional.
type ChatService struct {
	rag            *RAGService
	historyCache   HistoryCache
	publisher      TranscriptPublisher
	transcripts    TranscriptStore
	maxStoredTurns int
}

func NewChatService(
	rag *RAGService,
	historyCache HistoryCache,
	publisher TranscriptPublisher,
	transcripts TranscriptStore,
	maxStoredTurns int,
) *ChatService {
	if maxStoredTurns <= 0 {
		maxStoredTurns = defaultMaxStoredTurns
	}
	return &ChatService{
		rag:            rag,
		historyCache:   historyCache,
		publisher:      publisher,
		transcripts:    transcripts,
		maxStoredTurns: maxStoredTurns,
	}
}

// Send answers one message. History sent by the client wins over stored
// history; a missing conversation id starts a new conversation.
func (s *ChatService) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrInvalidInput
	}
	conversationID := strings.TrimSpace(input.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	history := input.History
	if len(history) == 0 {
		stored, err := s.History(ctx, conversationID)
		if err != nil {
			log.Printf("load history for %s failed: %v", conversationID, err)
		}
		history = stored
	}

	resp, err := s.rag.GenerateResponse(ctx, message, history, input.RAGEnabled)
	if err != nil {
		return nil, err
	}

	updated := append(append([]model.ChatTurn(nil), history...),
		model.ChatTurn{Role: "user", Content: message},
		model.ChatTurn{Role: "assistant", Content: resp.Response},
	)
	if s.historyCache != nil {
		if err := s.historyCache.SetHistory(ctx, conversationID, lastTurns(updated, s.maxStoredTurns)); err != nil {
			log.Printf("cache history for %s failed: %v", conversationID, err)
		}
	}
	s.publish(ctx, conversationID, message, resp)

	return &SendResult{ChatResponse: *resp, ConversationID: conversationID}, nil
}

// History returns the stored turns of a conversation, cache first.
func (s *ChatService) History(ctx context.Context, conversationID string) ([]model.ChatTurn, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, ErrInvalidInput
	}
	if s.historyCache != nil {
		if cached, hit, err := s.historyCache.GetHistory(ctx, conversationID); err == nil && hit {
			return cached, nil
		}
	}
	if s.transcripts == nil {
		return []model.ChatTurn{}, nil
	}
	rows, err := s.transcripts.ListByConversationID(conversationID, s.maxStoredTurns)
	if err != nil {
		return nil, err
	}
	turns := make([]model.ChatTurn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, model.ChatTurn{Role: row.Role, Content: row.Content})
	}
	if s.historyCache != nil && len(turns) > 0 {
		_ = s.historyCache.SetHistory(ctx, conversationID, turns)
	}
	return turns, nil
}

// ClearHistory forgets a conversation everywhere it is stored. Transcripts
// go first so a failure cannot leave the cache empty while the rows would
// refill it on the next read.
func (s *ChatService) ClearHistory(ctx context.Context, conversationID string) error {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return ErrInvalidInput
	}
	if s.transcripts != nil {
		if err := s.transcripts.DeleteByConversationID(conversationID); err != nil {
			return err
		}
	}
	if s.historyCache == nil {
		return nil
	}
	return s.historyCache.DeleteHistory(ctx, conversationID)
}

func (s *ChatService) publish(ctx context.Context, conversationID, message string, resp *ChatResponse) {
	if s.publisher == nil {
		return
	}
	now := time.Now()
	msgs := []model.ChatTranscript{
		{
			ConversationID: conversationID,
			Role:           "user",
			Content:        message,
			RAGEnabled:     resp.RAGEnabled,
			CreatedAt:      now,
		},
		{
			ConversationID: conversationID,
			Role:           "assistant",
			Content:        resp.Response,
			Sources:        strings.Join(resp.Sources, ","),
			RAGEnabled:     resp.RAGEnabled,
			CreatedAt:      now.Add(time.Millisecond),
		},
	}
	for _, msg := range msgs {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			log.Printf("%v for conversation %s: %v", ErrMessageEnqueue, conversationID, err)
			return
		}
	}
}
