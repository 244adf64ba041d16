package handlers

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/theyashgrover/videoplatform-backend/internal/apperr"
	"github.com/theyashgrover/videoplatform-backend/internal/media"
	"github.com/theyashgrover/videoplatform-backend/internal/rate"
	"github.com/theyashgrover/videoplatform-backend/internal/security"
	"github.com/theyashgrover/videoplatform-backend/internal/storage"
	libauth "github.com/theyashgrover/videoplatform-backend/libs/auth"
	"github.com/theyashgrover/videoplatform-backend/libs/kafka"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store is the slice of the user store the handlers need. Satisfied by
// *storage.Store and by in-memory fakes in tests.
type Store interface {
	CreateUser(ctx context.Context, u *storage.User) (bson.ObjectID, error)
	GetUserByID(ctx context.Context, id bson.ObjectID) (*storage.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*storage.User, error)
	SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error
	ClearRefreshToken(ctx context.Context, id bson.ObjectID) error
	SetPassword(ctx context.Context, id bson.ObjectID, digest string) error
	AppendWatchHistory(ctx context.Context, userID, videoID bson.ObjectID) error
	GetChannelProfile(ctx context.Context, username string, viewerID bson.ObjectID) (*storage.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID bson.ObjectID) ([]storage.WatchVideo, error)
}

type UserHandler struct {
	Store          Store
	Logger         *slog.Logger
	Tokens         *security.TokenManager
	Hasher         *security.PasswordHasher
	Uploader       media.Uploader
	RateLimiter    rate.Limiter
	Clock          Clock
	WatchPublisher kafka.Publisher
	WatchTopic     string
	UploadTempDir  string
}

func NewUserHandler(store Store, logger *slog.Logger, tokens *security.TokenManager, hasher *security.PasswordHasher, uploader media.Uploader, limiter rate.Limiter, tempDir string) *UserHandler {
	return &UserHandler{
		Store:         store,
		Logger:        logger,
		Tokens:        tokens,
		Hasher:        hasher,
		Uploader:      uploader,
		RateLimiter:   limiter,
		Clock:         systemClock{},
		UploadTempDir: tempDir,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.Engine, accessSecret []byte) {
	users := r.Group("/api/v1/users")
	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.Refresh)

	protected := users.Group("", libauth.Middleware(accessSecret))
	protected.POST("/logout", h.Logout)
	protected.POST("/change-password", h.ChangePassword)
	protected.GET("/current-user", h.CurrentUser)
	protected.GET("/channel/:username", h.ChannelProfile)
	protected.GET("/history", h.WatchHistory)
	protected.POST("/history/:videoId", h.RecordWatch)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps the error taxonomy onto HTTP exhaustively. Untyped errors
// land on 500 with a generic message so internals never leak to clients.
func (h *UserHandler) writeError(c *gin.Context, err error) {
	var status int
	var code string

	switch apperr.KindOf(err) {
	case apperr.KindBadRequest:
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case apperr.KindUnauthorized:
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case apperr.KindNotFound:
		status, code = http.StatusNotFound, "NOT_FOUND"
	case apperr.KindConflict:
		status, code = http.StatusConflict, "CONFLICT"
	case apperr.KindInternal:
		status, code = http.StatusInternalServerError, "INTERNAL_ERROR"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL_ERROR"
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, errorResponse{Code: code, Message: apperr.MessageOf(err)})
}

// userResponse is the sanitized user payload. Password and refresh token are
// never part of any response.
type userResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

func sanitizeUser(u *storage.User) userResponse {
	return userResponse{
		ID:         u.ID.Hex(),
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// authedUserID resolves the middleware-provided subject into an ObjectID.
func authedUserID(c *gin.Context) (bson.ObjectID, error) {
	subject, ok := libauth.UserID(c)
	if !ok {
		return bson.NilObjectID, apperr.New(apperr.KindUnauthorized, "missing user")
	}
	id, err := bson.ObjectIDFromHex(subject)
	if err != nil {
		return bson.NilObjectID, apperr.Wrap(apperr.KindUnauthorized, "invalid token subject", err)
	}
	return id, nil
}
