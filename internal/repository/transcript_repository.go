package repository

import (
	"fmt"

	"gorm.io/gorm"

	"career-constellation/internal/model"
)

type TranscriptRepository struct {
	db *gorm.DB
}

func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

func (r *TranscriptRepository) Create(transcript *model.ChatTranscript) error {
	if err := r.db.Create(transcript).Error; err != nil {
		return fmt.Errorf("create transcript failed: %w", err)
	}
	return nil
}

// ListByConversationID returns the latest limit messages of a
// conversation, oldest first.
func (r *TranscriptRepository) ListByConversationID(conversationID string, limit int) ([]model.ChatTranscript, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var rows []model.ChatTranscript
	if err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transcripts failed: %w", err)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *TranscriptRepository) DeleteByConversationID(conversationID string) error {
	if err := r.db.Where("conversation_id = ?", conversationID).
		Delete(&model.ChatTranscript{}).Error; err != nil {
		return fmt.Errorf("delete transcripts failed: %w", err)
	}
	return nil
}
