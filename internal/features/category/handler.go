package category

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/authz"
	"github.com/academyhq/academy-server-go/internal/middleware"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/request"
	"github.com/academyhq/academy-server-go/pkg/response"
)

// Handler processes category HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a category handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns paginated categories.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)
	filters := ListFilters{Keyword: c.Query("filterKeyword")}

	categories, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list categories", err)
		return
	}

	response.Success(c, http.StatusOK, categories, "", pagination.MetadataFrom(total, params))
}

// GetByID returns a single category.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("categoryId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid category id", err)
		return
	}

	cat, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load category")
		return
	}

	response.Success(c, http.StatusOK, cat, "", nil)
}

type createRequest struct {
	Name        string  `json:"name" binding:"required"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

// Create inserts a new category.
func (h *Handler) Create(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := authz.Authorize(actor, authz.OperationCreate, authz.ClassCategory, uuid.Nil); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid category payload", err)
		return
	}

	cat, err := Create(h.db, CreateInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err, "failed to create category")
		return
	}

	response.Created(c, cat, "Category created")
}

// Update applies a partial update to a category.
func (h *Handler) Update(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := authz.Authorize(actor, authz.OperationUpdate, authz.ClassCategory, uuid.Nil); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	id, err := uuid.Parse(c.Param("categoryId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid category id", err)
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid category payload", err)
		return
	}

	input := UpdateInput{}

	if raw, exists := body["name"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "name must be a non-empty string")
			return
		}
		input.Name = &value
	}

	if raw, exists := body["slug"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "slug must be a non-empty string")
			return
		}
		input.Slug = &value
	}

	if raw, exists := body["description"]; exists {
		input.DescriptionProvided = true
		if raw != nil {
			value, err := request.ReadString(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "description must be a string")
				return
			}
			input.Description = &value
		}
	}

	cat, err := Update(h.db, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update category")
		return
	}

	response.Success(c, http.StatusOK, cat, "Category updated", nil)
}

// Delete removes a category without courses.
func (h *Handler) Delete(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := authz.Authorize(actor, authz.OperationDelete, authz.ClassCategory, uuid.Nil); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	id, err := uuid.Parse(c.Param("categoryId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid category id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete category")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id}, "Category deleted", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, authz.ErrAuthenticationRequired):
		status = http.StatusUnauthorized
		message = "Authentication required"
	case errors.Is(err, authz.ErrPermissionDenied):
		status = http.StatusForbidden
		message = "Access denied: Insufficient permissions."
	case errors.Is(err, ErrCategoryNotFound):
		status = http.StatusNotFound
		message = "Category not found"
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrSlugTaken), errors.Is(err, ErrCategoryInUse):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrInvalidSlug), errors.Is(err, ErrNameRequired):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
