package lesson

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

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
	"github.com/academyhq/academy-server-go/pkg/storage"
	"github.com/academyhq/academy-server-go/pkg/types"
	"github.com/academyhq/academy-server-go/pkg/validation"
)

// Handler processes lesson HTTP requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	cache    *cache.RedisClient
	resolver *ownership.Resolver
	storage  storage.Storage
}

// NewHandler constructs a lesson handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cacheClient *cache.RedisClient, resolver *ownership.Resolver, store storage.Storage) *Handler {
	return &Handler{db: db, logger: logger, cache: cacheClient, resolver: resolver, storage: store}
}

// List returns paginated lessons ordered by position. Filtering by module
// hides the listing when the module's course is not visible to the caller.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)
	actor := middleware.ActorFromContext(c)

	filters := ListFilters{}

	if raw := c.Query("moduleId"); raw != "" {
		moduleID, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
			return
		}

		parent, err := h.resolver.ModuleCourse(c.Request.Context(), moduleID)
		if err != nil {
			h.respondError(c, err, "failed to list lessons")
			return
		}
		if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
			h.respondError(c, ownership.ErrModuleNotFound, "failed to list lessons")
			return
		}

		filters.ModuleID = &moduleID
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

	lessons, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list lessons", err)
		return
	}

	response.Success(c, http.StatusOK, lessons, "", pagination.MetadataFrom(total, params))
}

// GetByID returns a single lesson. Lessons of invisible courses are
// reported as missing.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.LessonCourse(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}
	if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
		h.respondError(c, ErrLessonNotFound, "failed to load lesson")
		return
	}

	lsn, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}

	response.Success(c, http.StatusOK, lsn, "", nil)
}

type createRequest struct {
	ModuleID     string  `json:"moduleId" binding:"required"`
	Title        string  `json:"title" binding:"required"`
	Content      *string `json:"content"`
	LessonType   string  `json:"lessonType" binding:"required"`
	Order        int     `json:"order"`
	VideoURL     *string `json:"videoUrl"`
	DocumentFile *string `json:"documentFile"`
	Duration     *int    `json:"duration"`
	Preview      bool    `json:"isPreview"`
}

// Create inserts a new lesson under a module whose course the caller owns.
// A missing module is reported before any permission check.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	moduleID, err := uuid.Parse(req.ModuleID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.ModuleCourse(c.Request.Context(), moduleID)
	if err != nil {
		h.respondError(c, err, "failed to create lesson")
		return
	}
	if err := authz.Authorize(actor, authz.OperationCreate, authz.ClassLesson, parent.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	lsn, err := Create(h.db, CreateInput{
		ModuleID:     moduleID,
		Title:        req.Title,
		Content:      req.Content,
		LessonType:   types.LessonType(req.LessonType),
		Order:        req.Order,
		VideoURL:     req.VideoURL,
		DocumentFile: req.DocumentFile,
		Duration:     req.Duration,
		Preview:      req.Preview,
	})
	if err != nil {
		h.respondError(c, err, "failed to create lesson")
		return
	}

	h.invalidate(c, parent.ID)
	response.Created(c, lsn, "Lesson created")
}

// Update applies a partial update to a lesson. Moving the lesson requires
// owning the target module's course as well.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.LessonCourse(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}
	if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
		h.respondError(c, ErrLessonNotFound, "failed to load lesson")
		return
	}
	if err := authz.Authorize(actor, authz.OperationUpdate, authz.ClassLesson, parent.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	input, ok := h.parseUpdate(c, body)
	if !ok {
		return
	}

	targetCourse := parent.ID
	if input.ModuleID != nil {
		newParent, err := h.resolver.ModuleCourse(c.Request.Context(), *input.ModuleID)
		if err != nil {
			h.respondError(c, err, "failed to update lesson")
			return
		}
		if newParent.ID != parent.ID {
			if err := authz.Authorize(actor, authz.OperationUpdate, authz.ClassLesson, newParent.InstructorID); err != nil {
				h.respondError(c, err, "not allowed")
				return
			}
			targetCourse = newParent.ID
		}
	}

	lsn, err := Update(h.db, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update lesson")
		return
	}

	h.invalidate(c, parent.ID)
	if targetCourse != parent.ID {
		h.invalidate(c, targetCourse)
	}
	response.Success(c, http.StatusOK, lsn, "Lesson updated", nil)
}

// Delete removes a lesson.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.LessonCourse(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}
	if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
		h.respondError(c, ErrLessonNotFound, "failed to load lesson")
		return
	}
	if err := authz.Authorize(actor, authz.OperationDelete, authz.ClassLesson, parent.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete lesson")
		return
	}

	h.invalidate(c, parent.ID)
	response.Success(c, http.StatusOK, gin.H{"id": id}, "Lesson deleted", nil)
}

// UploadDocument stores a document file for a DOCUMENT lesson.
func (h *Handler) UploadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	actor := middleware.ActorFromContext(c)

	parent, err := h.resolver.LessonCourse(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}
	if !authz.CanSee(actor, parent.InstructorID, parent.Published) {
		h.respondError(c, ErrLessonNotFound, "failed to load lesson")
		return
	}
	if err := authz.Authorize(actor, authz.OperationUpdate, authz.ClassLesson, parent.InstructorID); err != nil {
		h.respondError(c, err, "not allowed")
		return
	}

	lsn, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}
	if lsn.LessonType != types.LessonDocument {
		h.respondError(c, ErrNotDocumentType, "failed to upload document")
		return
	}

	file, err := c.FormFile("document")
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "document file is required", err)
		return
	}

	if err := validation.CheckDocumentUpload(file.Filename, file.Size); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	src, err := file.Open()
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to read upload", err)
		return
	}
	defer src.Close()

	remotePath := fmt.Sprintf("lessons/%s/%s%s", id, uuid.New(), filepath.Ext(file.Filename))
	url, err := h.storage.Save(c.Request.Context(), remotePath, src)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	updated, err := Update(h.db, id, UpdateInput{
		DocumentFile:         &url,
		DocumentFileProvided: true,
	})
	if err != nil {
		h.respondError(c, err, "failed to update lesson")
		return
	}

	h.invalidate(c, parent.ID)
	response.Success(c, http.StatusOK, updated, "Document uploaded", nil)
}

func (h *Handler) parseUpdate(c *gin.Context, body map[string]interface{}) (UpdateInput, bool) {
	input := UpdateInput{}

	if raw, exists := body["moduleId"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "moduleId must be a string")
			return input, false
		}
		id, err := uuid.Parse(value)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid module id")
			return input, false
		}
		input.ModuleID = &id
	}

	if raw, exists := body["title"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "title must be a non-empty string")
			return input, false
		}
		input.Title = &value
	}

	if raw, exists := body["content"]; exists {
		input.ContentProvided = true
		if raw != nil {
			value, err := request.ReadString(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "content must be a string")
				return input, false
			}
			input.Content = &value
		}
	}

	if raw, exists := body["lessonType"]; exists {
		value, err := request.ReadString(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "lessonType must be a string")
			return input, false
		}
		lessonType := types.LessonType(value)
		input.LessonType = &lessonType
	}

	if raw, exists := body["order"]; exists {
		value, err := request.ReadInt(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "order must be a number")
			return input, false
		}
		input.Order = &value
	}

	if raw, exists := body["videoUrl"]; exists {
		input.VideoURLProvided = true
		if raw != nil {
			value, err := request.ReadString(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "videoUrl must be a string")
				return input, false
			}
			input.VideoURL = &value
		}
	}

	if raw, exists := body["documentFile"]; exists {
		input.DocumentFileProvided = true
		if raw != nil {
			value, err := request.ReadString(raw)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "documentFile must be a string")
				return input, false
			}
			input.DocumentFile = &value
		}
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

	if raw, exists := body["isPreview"]; exists {
		value, err := request.ReadBool(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "isPreview must be a boolean")
			return input, false
		}
		input.Preview = &value
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
	case errors.Is(err, ErrLessonNotFound):
		status = http.StatusNotFound
		message = "Lesson not found"
	case errors.Is(err, ownership.ErrModuleNotFound):
		status = http.StatusNotFound
		message = "Module not found"
	case errors.Is(err, ownership.ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found"
	case errors.Is(err, ErrOrderTaken):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrVideoURLRequired),
		errors.Is(err, ErrNotDocumentType),
		errors.Is(err, validation.ErrInvalidVideoURL),
		errors.Is(err, validation.ErrInvalidFileType),
		errors.Is(err, validation.ErrFileTooLarge):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
