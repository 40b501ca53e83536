package course

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/authz"
	"github.com/academyhq/academy-server-go/internal/features/category"
	"github.com/academyhq/academy-server-go/internal/middleware"
	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/cache"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/request"
	"github.com/academyhq/academy-server-go/pkg/response"
	"github.com/academyhq/academy-server-go/pkg/types"
)

const detailCacheTTL = 5 * time.Minute

// Handler processes course HTTP requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	cache    *cache.RedisClient
	resolver *ownership.Resolver
}

// NewHandler constructs a course handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cacheClient *cache.RedisClient, resolver *ownership.Resolver) *Handler {
	return &Handler{db: db, logger: logger, cache: cacheClient, resolver: resolver}
}

// DetailCacheKey returns the cache key for a course detail projection.
func DetailCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("course:detail:%s", id)
}

// List returns paginated courses visible to the caller. Instructors get
// their own catalog, drafts included; everyone else gets published courses,
// and admins the full set.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)
	actor := middleware.ActorFromContext(c)

	filters := ListFilters{Keyword: c.Query("filterKeyword")}

	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid category filter", err)
			return
		}
		filters.CategoryID = &id
	}

	if raw := c.Query("level"); raw != "" {
		level := types.CourseLevel(raw)
		if !level.Valid() {
			response.Error(c, http.StatusBadRequest, "invalid level filter")
			return
		}
		filters.Level = &level
	}

	if raw := c.Query("instructor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid instructor filter", err)
			return
		}
		filters.InstructorID = &id
	}

	switch {
	case actor.IsAdmin():
		// Admins see the full catalog.
	case actor.IsInstructor():
		// Instructors always get their own catalog, even when the request
		// names another instructor.
		ownerID := actor.ID
		filters.InstructorID = &ownerID
	default:
		filters.PublishedOnly = true
	}

	courses, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list courses", err)
		return
	}

	response.Success(c, http.StatusOK, courses, "", pagination.MetadataFrom(total, params))
}

// GetByID returns a course with its modules and lessons. An unpublished
// course is reported as missing to everyone but its owner and admins.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	var cached Detail
	found, err := h.cache.GetJSON(c.Request.Context(), DetailCacheKey(id), &cached)
	if err != nil {
		h.logger.Warn("course cache read failed", slog.String("error", err.Error()))
	}
	if found {
		if !authz.CanSee(actor, cached.InstructorID, cached.Published) {
			h.respondError(c, ErrCourseNotFound, "failed to load course")
			return
		}
		response.Success(c, http.StatusOK, cached, "", nil)
		return
	}

	detail, err := GetDetail(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	if !authz.CanSee(actor, detail.InstructorID, detail.Published) {
		h.respondError(c, ErrCourseNotFound, "failed to load course")
		return
	}

	if detail.Published {
		if err := h.cache.SetJSON(c.Request.Context(), DetailCacheKey(id), detail, detailCacheTTL); err != nil {
			h.logger.Warn("course cache write failed", slog.String("error", err.Error()))
		}
	}

	response.Success(c, http.StatusOK, detail, "", nil)
}

type createRequest struct {
	Title       string   `json:"title" binding:"required"`
	Slug        string   `json:"slug"`
	Description string   `json:"description" binding:"required"`
	CategoryID  string   `json:"categoryId" binding:"required"`
	Price       *float64 `json:"price"`
	Level       string   `json:"level" binding:"required"`
	Duration    *int     `json:"duration"`
	Tags        []string `json:"tags"`
	Published   bool     `json:"isPublished"`
}

// Create inserts a new course owned by the calling instructor. The owner is
// always the caller; a client-supplied instructor id is ignored.
func (h *Handler) Create(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := authz.Authorize(actor, authz.OperationCreate, authz.ClassCourse, uuid.Nil); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid category id", err)
		return
	}

	price := types.Money{}
	if req.Price != nil {
		price = types.NewMoney(*req.Price)
	}

	crs, err := Create(h.db, CreateInput{
		Title:        req.Title,
		Slug:         req.Slug,
		Description:  req.Description,
		InstructorID: actor.ID,
		CategoryID:   categoryID,
		Price:        price,
		Level:        types.CourseLevel(req.Level),
		Duration:     req.Duration,
		Tags:         req.Tags,
		Published:    req.Published,
	})
	if err != nil {
		h.respondError(c, err, "failed to create course")
		return
	}

	response.Created(c, crs, "Course created")
}

// Update applies a partial update to a course the caller owns.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	crs, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}
	if !authz.CanSee(actor, crs.InstructorID, crs.Published) {
		h.respondError(c, ErrCourseNotFound, "failed to load course")
		return
	}
	if err := authz.Authorize(actor, authz.OperationUpdate, authz.ClassCourse, crs.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	input, ok := h.parseUpdate(c, body)
	if !ok {
		return
	}

	updated, err := Update(h.db, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update course")
		return
	}

	h.invalidate(c, id)
	response.Success(c, http.StatusOK, updated, "Course updated", nil)
}

// Delete removes a course the caller owns, cascading to modules and lessons.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	crs, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}
	if !authz.CanSee(actor, crs.InstructorID, crs.Published) {
		h.respondError(c, ErrCourseNotFound, "failed to load course")
		return
	}
	if err := authz.Authorize(actor, authz.OperationDelete, authz.ClassCourse, crs.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete course")
		return
	}

	h.invalidate(c, id)
	h.resolver.Forget(id)
	response.Success(c, http.StatusOK, gin.H{"id": id}, "Course deleted", nil)
}

func (h *Handler) parseUpdate(c *gin.Context, body map[string]interface{}) (UpdateInput, bool) {
	input := UpdateInput{}

	if raw, exists := body["title"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "title must be a non-empty string")
			return input, false
		}
		input.Title = &value
	}

	if raw, exists := body["slug"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "slug must be a non-empty string")
			return input, false
		}
		input.Slug = &value
	}

	if raw, exists := body["description"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "description must be a non-empty string")
			return input, false
		}
		input.Description = &value
	}

	if raw, exists := body["categoryId"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "categoryId must be a string")
			return input, false
		}
		id, err := uuid.Parse(value)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid category id")
			return input, false
		}
		input.CategoryID = &id
	}

	if raw, exists := body["price"]; exists {
		value, err := request.ReadFloat(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "price must be a number")
			return input, false
		}
		price := types.NewMoney(value)
		input.Price = &price
	}

	if raw, exists := body["level"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "level must be a string")
			return input, false
		}
		level := types.CourseLevel(value)
		input.Level = &level
	}

	if raw, exists := body["duration"]; exists {
		input.DurationProvided = true
		if raw != nil {
			value, err := request.ReadInt(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "duration must be a number")
				return input, false
			}
			input.Duration = &value
		}
	}

	if raw, exists := body["tags"]; exists {
		input.TagsProvided = true
		if raw != nil {
			value, err := request.ReadStringSlice(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "tags must be an array of strings")
				return input, false
			}
			input.Tags = value
		}
	}

	if raw, exists := body["isPublished"]; exists {
		value, err := request.ReadBool(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "isPublished must be a boolean")
			return input, false
		}
		input.Published = &value
	}

	return input, true
}

func (h *Handler) invalidate(c *gin.Context, courseID uuid.UUID) {
	if err := h.cache.Delete(c.Request.Context(), DetailCacheKey(courseID)); err != nil {
		h.logger.Warn("course cache invalidation failed", slog.String("error", err.Error()))
	}
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
	case errors.Is(err, ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found"
	case errors.Is(err, category.ErrCategoryNotFound):
		status = http.StatusNotFound
		message = "Category not found"
	case errors.Is(err, ErrSlugTaken):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrInvalidSlug), errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrInvalidLevel), errors.Is(err, ErrInvalidPrice):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
