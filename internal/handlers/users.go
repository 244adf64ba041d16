package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/theyashgrover/videoplatform-backend/internal/apperr"
	"github.com/theyashgrover/videoplatform-backend/internal/storage"
	"github.com/theyashgrover/videoplatform-backend/libs/kafka"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (h *UserHandler) CurrentUser(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	user, err := h.Store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(c, apperr.New(apperr.KindNotFound, "user does not exist"))
			return
		}
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	c.JSON(http.StatusOK, sanitizeUser(user))
}

func (h *UserHandler) ChannelProfile(c *gin.Context) {
	viewerID, err := authedUserID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		h.writeError(c, apperr.New(apperr.KindBadRequest, "username is required"))
		return
	}

	profile, err := h.Store.GetChannelProfile(c.Request.Context(), username, viewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(c, apperr.New(apperr.KindNotFound, "channel does not exist"))
			return
		}
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) WatchHistory(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	history, err := h.Store.GetWatchHistory(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(c, apperr.New(apperr.KindNotFound, "user does not exist"))
			return
		}
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"watchHistory": history})
}

// WatchEvent is the payload carried on the watch topic.
type WatchEvent struct {
	kafka.Envelope
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	WatchedAt time.Time `json:"watchedAt"`
}

const WatchEventType = "video.watched"

// RecordWatch notes that the user watched a video. With Kafka configured the
// event is published and applied asynchronously; otherwise the history is
// appended in-line.
func (h *UserHandler) RecordWatch(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	videoID, err := bson.ObjectIDFromHex(c.Param("videoId"))
	if err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindBadRequest, "invalid video id", err))
		return
	}

	if h.WatchPublisher == nil {
		if err := h.Store.AppendWatchHistory(c.Request.Context(), userID, videoID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				h.writeError(c, apperr.New(apperr.KindNotFound, "user does not exist"))
				return
			}
			h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "watch recorded"})
		return
	}

	envelope, err := kafka.NewEnvelope(WatchEventType, 1, c.GetHeader("X-Request-ID"))
	if err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	event := WatchEvent{
		Envelope:  envelope,
		UserID:    userID.Hex(),
		VideoID:   videoID.Hex(),
		WatchedAt: h.Clock.Now().UTC(),
	}

	if _, _, err := h.WatchPublisher.PublishJSON(c.Request.Context(), h.WatchTopic, event.UserID, event); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "watch recorded"})
}
