package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/theyashgrover/videoplatform-backend/internal/apperr"
	"github.com/theyashgrover/videoplatform-backend/internal/security"
	"github.com/theyashgrover/videoplatform-backend/internal/storage"
	"github.com/theyashgrover/videoplatform-backend/libs/metrics"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type loginResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates a user from a multipart form: fullName, email, username,
// password plus an avatar file and an optional coverImage file.
func (h *UserHandler) Register(c *gin.Context) {
	fullName := strings.TrimSpace(c.PostForm("fullName"))
	email := strings.TrimSpace(c.PostForm("email"))
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(password) == "" {
		h.writeError(c, apperr.New(apperr.KindBadRequest, "all fields are required"))
		return
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		h.writeError(c, apperr.New(apperr.KindBadRequest, "avatar file is required"))
		return
	}

	avatarURL, err := h.stageAndUpload(c, avatarFile)
	if err != nil {
		h.writeError(c, err)
		return
	}

	coverURL := ""
	if coverFile, err := c.FormFile("coverImage"); err == nil {
		coverURL, err = h.stageAndUpload(c, coverFile)
		if err != nil {
			h.writeError(c, err)
			return
		}
	}

	digest, err := h.Hasher.Hash(password)
	if err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "something went wrong while registering the user", err))
		return
	}

	user := &storage.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   digest,
	}

	if _, err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			h.writeError(c, apperr.New(apperr.KindConflict, "user with email or username already exists"))
			return
		}
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "something went wrong while registering the user", err))
		return
	}

	c.JSON(http.StatusCreated, sanitizeUser(user))
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindBadRequest, "invalid payload", err))
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" {
		h.writeError(c, apperr.New(apperr.KindBadRequest, "username or email is required"))
		return
	}
	if req.Password == "" {
		h.writeError(c, apperr.New(apperr.KindBadRequest, "password is required"))
		return
	}

	if h.RateLimiter != nil {
		allowed, retryAfter, err := h.RateLimiter.Allow(c.Request.Context(), c.ClientIP(), h.Clock.Now())
		if err != nil {
			h.Logger.Error("rate limiter failed", "error", err)
		} else if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, errorResponse{Code: "RATE_LIMITED", Message: "too many login attempts"})
			return
		}
	}

	user, err := h.Store.GetUserByIdentifier(c.Request.Context(), identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("not_found").Inc()
			h.writeError(c, apperr.New(apperr.KindNotFound, "user does not exist"))
			return
		}
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	if !h.Hasher.Verify(req.Password, user.Password) {
		metrics.LoginAttempts.WithLabelValues("bad_password").Inc()
		h.writeError(c, apperr.New(apperr.KindUnauthorized, "invalid user credentials"))
		return
	}

	accessToken, refreshToken, err := h.issueTokenPair(c, user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	setAuthCookies(c, accessToken, refreshToken, int(h.Tokens.AccessTTL().Seconds()), int(h.Tokens.RefreshTTL().Seconds()))
	c.JSON(http.StatusOK, loginResponse{
		User:         sanitizeUser(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.Store.ClearRefreshToken(c.Request.Context(), userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "user logged out successfully"})
}

// Refresh exchanges a valid, current refresh token for a new pair. The stored
// token is overwritten, so the presented one is single-use.
func (h *UserHandler) Refresh(c *gin.Context) {
	presented, _ := c.Cookie(refreshCookie)
	if presented == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		h.writeError(c, apperr.New(apperr.KindUnauthorized, "unauthorized request"))
		return
	}

	claims, err := h.Tokens.ParseRefreshToken(presented)
	if err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindUnauthorized, "invalid refresh token", err))
		return
	}

	userID, err := bson.ObjectIDFromHex(claims.Subject)
	if err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindUnauthorized, "invalid refresh token", err))
		return
	}

	user, err := h.Store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(c, apperr.New(apperr.KindUnauthorized, "invalid refresh token"))
			return
		}
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	// Rotation overwrites the stored value, so a mismatch means the token
	// was already spent or revoked.
	if user.RefreshToken == "" || presented != user.RefreshToken {
		h.writeError(c, apperr.New(apperr.KindUnauthorized, "refresh token is expired or used"))
		return
	}

	accessToken, refreshToken, err := h.issueTokenPair(c, user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	metrics.TokenRotations.Inc()
	setAuthCookies(c, accessToken, refreshToken, int(h.Tokens.AccessTTL().Seconds()), int(h.Tokens.RefreshTTL().Seconds()))
	c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, err := authedUserID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindBadRequest, "invalid payload", err))
		return
	}
	if strings.TrimSpace(req.NewPassword) == "" {
		h.writeError(c, apperr.New(apperr.KindBadRequest, "new password is required"))
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

	if !h.Hasher.Verify(req.OldPassword, user.Password) {
		h.writeError(c, apperr.New(apperr.KindBadRequest, "invalid old password"))
		return
	}

	digest, err := h.Hasher.Hash(req.NewPassword)
	if err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}
	if err := h.Store.SetPassword(c.Request.Context(), userID, digest); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "internal error", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

// issueTokenPair mints both tokens and persists the refresh token on the user
// record. Minting is pure computation; only the store write can fail in
// practice, and every failure here is a server fault, never a credential one.
func (h *UserHandler) issueTokenPair(c *gin.Context, user *storage.User) (string, string, error) {
	now := h.Clock.Now()

	accessToken, err := h.Tokens.NewAccessToken(security.Identity{
		ID:       user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	}, now)
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindInternal, "something went wrong while generating tokens", err)
	}

	refreshToken, err := h.Tokens.NewRefreshToken(user.ID.Hex(), now)
	if err != nil {
		return "", "", apperr.Wrap(apperr.KindInternal, "something went wrong while generating tokens", err)
	}

	if err := h.Store.SetRefreshToken(c.Request.Context(), user.ID, refreshToken); err != nil {
		return "", "", apperr.Wrap(apperr.KindInternal, "something went wrong while generating tokens", err)
	}

	return accessToken, refreshToken, nil
}

// stageAndUpload writes the multipart file to the local temp dir, pushes it
// to the media host and removes the staged copy.
func (h *UserHandler) stageAndUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	staged := filepath.Join(h.UploadTempDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, staged); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to stage upload", err)
	}
	defer func() {
		_ = os.Remove(staged)
	}()

	url, err := h.Uploader.Upload(c.Request.Context(), staged)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "media upload failed", err)
	}
	return url, nil
}
