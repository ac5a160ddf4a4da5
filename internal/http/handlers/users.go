package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/domain/user"
	"github.com/geocoder89/marketplace/internal/http/middlewares"
	"github.com/geocoder89/marketplace/internal/media"
	"github.com/geocoder89/marketplace/internal/security"
	"github.com/geocoder89/marketplace/internal/utils"
)

const (
	storeTimeout = 3 * time.Second
	mediaTimeout = 30 * time.Second
)

type UsersStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	FindByToken(ctx context.Context, token string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Save(ctx context.Context, u user.User) (user.User, error)
}

type UsersHandler struct {
	users UsersStore
	media media.Uploader
	log   *slog.Logger
}

func NewUsersHandler(users UsersStore, uploader media.Uploader, log *slog.Logger) *UsersHandler {
	if uploader == nil {
		uploader = media.Disabled{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &UsersHandler{users: users, media: uploader, log: log}
}

func (h *UsersHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !Bind(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Password) == "" {
		RespondBadRequest(ctx, offer.MsgMissingParameter, nil)
		return
	}

	salt, err := security.GenerateSalt()
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := security.GenerateToken()
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u := user.New(req, user.Credentials{
		Salt:  salt,
		Hash:  security.HashPassword(req.Password, salt),
		Token: token,
	})

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	created, err := h.users.Create(cctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "This email already has an account.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "create user failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, created.Session())
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.users.FindByEmail(cctx, req.Mail)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "Unauthorized")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "login lookup failed", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	if !security.CheckPassword(req.Password, u.PasswordSalt, u.PasswordHash) {
		RespondUnauthorized(ctx, "Unauthorized")
		return
	}

	ctx.JSON(http.StatusOK, u.Session())
}

func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	items := make([]user.Profile, 0, len(users))
	for _, u := range users {
		items = append(items, u.Profile())
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *UsersHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "User not found")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.users.FindByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u.Profile())
}

// UpdateProfile changes the caller's username and/or avatar. A failed avatar
// upload leaves the stored profile untouched.
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	actor, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, middlewares.MsgActionNotAllowed)
		return
	}

	var req user.UpdateProfileRequest

	if !Bind(ctx, &req) {
		return
	}

	avatar, err := formFile(ctx, "avatar")
	if err != nil {
		RespondBadRequest(ctx, msgInvalidBody, gin.H{"field": "avatar"})
		return
	}

	var username *string
	if req.Username != nil {
		if v := strings.TrimSpace(*req.Username); v != "" {
			username = &v
		}
	}

	if username == nil && avatar == nil {
		RespondBadRequest(ctx, offer.MsgNothingToUpdate, nil)
		return
	}

	u := actor

	if avatar != nil {
		url, err := uploadFile(ctx, h.media, avatar, media.FolderUsers, u.ID+"-"+uuid.NewString()[:8])
		if respondUploadError(ctx, err) {
			h.log.ErrorContext(ctx.Request.Context(), "avatar upload failed", "user_id", u.ID, "err", err)
			return
		}

		u.AvatarURL = url
	}

	if username != nil {
		u.Username = *username
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	saved, err := h.users.Save(cctx, u)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "save profile failed", "user_id", u.ID, "err", err)
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, saved.Profile())
}
