package enrollment

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/authz"
	"github.com/academyhq/academy-server-go/internal/middleware"
	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/response"
	"github.com/academyhq/academy-server-go/pkg/types"
)

// Handler processes enrollment HTTP requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	resolver *ownership.Resolver
}

// NewHandler constructs an enrollment handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, resolver *ownership.Resolver) *Handler {
	return &Handler{db: db, logger: logger, resolver: resolver}
}

// Enroll enrolls the calling student into a published course.
func (h *Handler) Enroll(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	if usr.Role != types.RoleStudent {
		h.respondError(c, ErrStudentsOnly, "not allowed")
		return
	}

	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	enrollment, err := Enroll(h.db, usr.ID, courseID)
	if err != nil {
		h.respondError(c, err, "failed to enroll")
		return
	}

	response.Created(c, enrollment, "Enrolled")
}

// ListOwn returns the calling student's enrollments.
func (h *Handler) ListOwn(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	params := pagination.Extract(c)
	enrollments, total, err := ListForStudent(h.db, usr.ID, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}

	response.Success(c, http.StatusOK, enrollments, "", pagination.MetadataFrom(total, params))
}

// UpdateProgress updates the calling student's progress on an enrollment.
func (h *Handler) UpdateProgress(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	id, err := uuid.Parse(c.Param("enrollmentId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid enrollment id", err)
		return
	}

	var req struct {
		Progress *float64 `json:"progressPercentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid progress payload", err)
		return
	}

	enrollment, err := UpdateProgress(h.db, id, usr.ID, *req.Progress)
	if err != nil {
		h.respondError(c, err, "failed to update progress")
		return
	}

	response.Success(c, http.StatusOK, enrollment, "Progress updated", nil)
}

// ListForCourse returns the enrollments of a course the caller owns.
func (h *Handler) ListForCourse(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	crs, err := h.resolver.Course(c.Request.Context(), courseID)
	if err != nil {
		h.respondError(c, err, "failed to list enrollments")
		return
	}
	if !authz.CanSee(actor, crs.InstructorID, crs.Published) {
		h.respondError(c, ownership.ErrCourseNotFound, "failed to list enrollments")
		return
	}
	if !actor.IsAdmin() && actor.ID != crs.InstructorID {
		h.respondError(c, authz.ErrPermissionDenied, "not allowed")
		return
	}

	params := pagination.Extract(c)
	enrollments, total, err := ListForCourse(h.db, courseID, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}

	response.Success(c, http.StatusOK, enrollments, "", pagination.MetadataFrom(total, params))
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, authz.ErrAuthenticationRequired):
		status = http.StatusUnauthorized
		message = "Authentication required"
	case errors.Is(err, authz.ErrPermissionDenied), errors.Is(err, ErrStudentsOnly):
		status = http.StatusForbidden
		message = "Access denied: Insufficient permissions."
	case errors.Is(err, ErrEnrollmentNotFound):
		status = http.StatusNotFound
		message = "Enrollment not found"
	case errors.Is(err, ownership.ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found"
	case errors.Is(err, ErrAlreadyEnrolled):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ErrInvalidProgress):
		status = http.StatusBadRequest
		message = err.Error()
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
