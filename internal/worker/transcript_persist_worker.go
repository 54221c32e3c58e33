package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"career-constellation/internal/model"
	"career-constellation/internal/platform/rabbitmq"
)

var ErrInvalidTranscript = errors.New("invalid transcript payload")

type TranscriptStore interface {
	Create(transcript *model.ChatTranscript) error
}

// TranscriptPersistWorker drains the transcript queue into MySQL.
type TranscriptPersistWorker struct {
	conn      *amqp.Connection
	store     TranscriptStore
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTranscriptPersistWorker(conn *amqp.Connection, store TranscriptStore, queueName string) *TranscriptPersistWorker {
	return &TranscriptPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
	}
}

func (w *TranscriptPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					log.Printf("worker persist transcript failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *TranscriptPersistWorker) handle(body []byte) error {
	var msg model.ChatTranscript
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTranscript, err)
	}
	if strings.TrimSpace(msg.ConversationID) == "" || msg.Role == "" {
		return ErrInvalidTranscript
	}
	msg.ID = 0
	return w.store.Create(&msg)
}

func (w *TranscriptPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
