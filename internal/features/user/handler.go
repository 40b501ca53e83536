package user

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/middleware"
	"github.com/academyhq/academy-server-go/pkg/request"
	"github.com/academyhq/academy-server-go/pkg/response"
	"github.com/academyhq/academy-server-go/pkg/storage"
	"github.com/academyhq/academy-server-go/pkg/validation"
)

// Handler processes profile HTTP requests.
type Handler struct {
	db      *gorm.DB
	logger  *slog.Logger
	storage storage.Storage
}

// NewHandler constructs a user handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, store storage.Storage) *Handler {
	return &Handler{db: db, logger: logger, storage: store}
}

// Profile returns the authenticated user's account.
func (h *Handler) Profile(c *gin.Context) {
	current, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	usr, err := Get(h.db, current.ID)
	if err != nil {
		h.respondError(c, err, "failed to load profile")
		return
	}

	response.Success(c, http.StatusOK, usr, "", nil)
}

// UpdateProfile applies a partial update to the authenticated user's account.
func (h *Handler) UpdateProfile(c *gin.Context) {
	current, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid profile payload", err)
		return
	}

	input := UpdateInput{}

	if raw, exists := body["fullName"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "fullName must be a non-empty string")
			return
		}
		input.FullName = &value
	}

	if raw, exists := body["bio"]; exists {
		input.BioProvided = true
		if raw != nil {
			value, err := request.ReadString(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "bio must be a string")
				return
			}
			input.Bio = &value
		}
	}

	if raw, exists := body["password"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "password must be a non-empty string")
			return
		}
		input.Password = &value
	}

	usr, err := Update(h.db, current.ID, input)
	if err != nil {
		h.respondError(c, err, "failed to update profile")
		return
	}

	response.Success(c, http.StatusOK, usr, "Profile updated", nil)
}

// UploadProfilePicture stores a new profile image for the authenticated user.
func (h *Handler) UploadProfilePicture(c *gin.Context) {
	current, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "image file is required", err)
		return
	}

	if err := validation.CheckImageUpload(file.Filename, file.Size); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	src, err := file.Open()
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to read upload", err)
		return
	}
	defer src.Close()

	remotePath := fmt.Sprintf("profiles/%s/%s%s", current.ID, uuid.New(), filepath.Ext(file.Filename))
	url, err := h.storage.Save(c.Request.Context(), remotePath, src)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	usr, err := Update(h.db, current.ID, UpdateInput{
		ProfilePicture:         &url,
		ProfilePictureProvided: true,
	})
	if err != nil {
		h.respondError(c, err, "failed to update profile")
		return
	}

	response.Success(c, http.StatusOK, usr, "Profile picture updated", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found"
	case errors.Is(err, ErrEmailTaken):
		status = http.StatusConflict
		message = "Email already exists"
	case errors.Is(err, ErrInvalidPassword), errors.Is(err, ErrNameRequired):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
