package coursemodule

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/authz"
	"github.com/academyhq/academy-server-go/internal/features/course"
	"github.com/academyhq/academy-server-go/internal/middleware"
	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/cache"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/request"
	"github.com/academyhq/academy-server-go/pkg/response"
)

// Handler processes course module HTTP requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	cache    *cache.RedisClient
	resolver *ownership.Resolver
}

// NewHandler constructs a module handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cacheClient *cache.RedisClient, resolver *ownership.Resolver) *Handler {
	return &Handler{db: db, logger: logger, cache: cacheClient, resolver: resolver}
}

// List returns paginated modules, ordered by position. Filtering by course
// hides the whole listing when the course is not visible to the caller.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)
	actor := middleware.ActorFromContext(c)

	filters := ListFilters{}

	if raw := c.Query("courseId"); raw != "" {
		courseID, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
			return
		}

		parent, err := h.resolver.Course(c.Request.Context(), courseID)
		if err != nil {
			h.respondError(c, err, "failed to list modules")
			return
		}
		if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
			h.respondError(c, ownership.ErrCourseNotFound, "failed to list modules")
			return
		}

		filters.CourseID = &courseID
	} else {
		switch {
		case actor.IsAdmin():
		case actor.IsInstructor():
			ownerID := actor.ID
			filters.OwnerID = &ownerID
		default:
			filters.PublishedOnly = true
		}
	}

	modules, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list modules", err)
		return
	}

	response.Success(c, http.StatusOK, modules, "", pagination.MetadataFrom(total, params))
}

// GetByID returns a module with its lessons. Modules of invisible courses
// are reported as missing.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.ModuleCourse(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load module")
		return
	}
	if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
		h.respondError(c, ErrModuleNotFound, "failed to load module")
		return
	}

	detail, err := GetDetail(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load module")
		return
	}

	response.Success(c, http.StatusOK, detail, "", nil)
}

type createRequest struct {
	CourseID    string  `json:"courseId" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Order       int     `json:"order"`
}

// Create inserts a new module under a course the caller owns. A missing
// course is reported before any permission check.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module payload", err)
		return
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.Course(c.Request.Context(), courseID)
	if err != nil {
		h.respondError(c, err, "failed to create module")
		return
	}
	if err := authz.Authorize(actor, authz.OperationCreate, authz.ClassModule, parent.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	module, err := Create(h.db, CreateInput{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		h.respondError(c, err, "failed to create module")
		return
	}

	h.invalidate(c, courseID)
	response.Created(c, module, "Module created")
}

// Update applies a partial update to a module under a course the caller
// owns. Moving the module requires owning the target course as well.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.ModuleCourse(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load module")
		return
	}
	if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
		h.respondError(c, ErrModuleNotFound, "failed to load module")
		return
	}
	if err := authz.Authorize(actor, authz.OperationUpdate, authz.ClassModule, parent.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module payload", err)
		return
	}

	input, ok := h.parseUpdate(c, body)
	if !ok {
		return
	}

	targetCourse := parent.ID
	if input.CourseID != nil && *input.CourseID != parent.ID {
		newParent, err := h.resolver.Course(c.Request.Context(), *input.CourseID)
		if err != nil {
			h.respondError(c, err, "failed to update module")
			return
		}
		if err := authz.Authorize(actor, authz.OperationUpdate, authz.ClassModule, newParent.InstructorID); err != nil {
			h.respondError(c, err, "not allowed")
			return
		}
		targetCourse = newParent.ID
	}

	module, err := Update(h.db, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update module")
		return
	}

	h.invalidate(c, parent.ID)
	if targetCourse != parent.ID {
		h.invalidate(c, targetCourse)
	}
	response.Success(c, http.StatusOK, module, "Module updated", nil)
}

// Delete removes a module and its lessons.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.ModuleCourse(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load module")
		return
	}
	if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
		h.respondError(c, ErrModuleNotFound, "failed to load module")
		return
	}
	if err := authz.Authorize(actor, authz.OperationDelete, authz.ClassModule, parent.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete module")
		return
	}

	h.invalidate(c, parent.ID)
	response.Success(c, http.StatusOK, gin.H{"id": id}, "Module deleted", nil)
}

func (h *Handler) parseUpdate(c *gin.Context, body map[string]interface{}) (UpdateInput, bool) {
	input := UpdateInput{}

	if raw, exists := body["courseId"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "courseId must be a string")
			return input, false
		}
		id, err := uuid.Parse(value)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid course id")
			return input, false
		}
		input.CourseID = &id
	}

	if raw, exists := body["title"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "title must be a non-empty string")
			return input, false
		}
		input.Title = &value
	}

	if raw, exists := body["description"]; exists {
		input.DescriptionProvided = true
		if raw != nil {
			value, err := request.ReadString(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "description must be a string")
				return input, false
			}
			input.Description = &value
		}
	}

	if raw, exists := body["order"]; exists {
		value, err := request.ReadInt(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "order must be a number")
			return input, false
		}
		input.Order = &value
	}

	return input, true
}

func (h *Handler) invalidate(c *gin.Context, courseID uuid.UUID) {
	if err := h.cache.Delete(c.Request.Context(), course.DetailCacheKey(courseID)); err != nil {
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
	case errors.Is(err, ErrModuleNotFound):
		status = http.StatusNotFound
		message = "Module not found"
	case errors.Is(err, ownership.ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found"
	case errors.Is(err, ErrOrderTaken):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrTitleRequired):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
