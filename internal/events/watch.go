// Package events applies watch events from Kafka to the user's stored
// watch history.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/IBM/sarama"
	"github.com/theyashgrover/videoplatform-backend/libs/kafka"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type HistoryStore interface {
	AppendWatchHistory(ctx context.Context, userID, videoID bson.ObjectID) error
}

// WatchEvent mirrors handlers.WatchEvent on the wire.
type WatchEvent struct {
	kafka.Envelope
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	WatchedAt time.Time `json:"watchedAt"`
}

type WatchHandler struct {
	store  HistoryStore
	logger *slog.Logger
}

func NewWatchHandler(store HistoryStore, logger *slog.Logger) *WatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchHandler{store: store, logger: logger}
}

func (h *WatchHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event WatchEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode watch event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid watch event: %w", err)
	}

	userID, err := bson.ObjectIDFromHex(event.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", event.UserID, err)
	}
	videoID, err := bson.ObjectIDFromHex(event.VideoID)
	if err != nil {
		return fmt.Errorf("invalid video id %q: %w", event.VideoID, err)
	}

	if err := h.store.AppendWatchHistory(ctx, userID, videoID); err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}

	h.logger.Debug("watch event applied",
		"event_id", event.EventID,
		"user_id", event.UserID,
		"video_id", event.VideoID,
	)
	return nil
}
