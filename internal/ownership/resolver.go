// Package ownership resolves which instructor owns a catalog resource.
// Modules and lessons carry no owner themselves; ownership is always the
// walk-up Lesson -> CourseModule -> Course -> instructor. The resolver
// queries the catalog tables directly through narrow row projections so it
// stays independent of the feature packages that depend on it.
package ownership

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/pkg/memory"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

// CourseRef is the slice of a course the resolver and visibility checks need.
type CourseRef struct {
	ID           uuid.UUID `gorm:"column:id"`
	InstructorID uuid.UUID `gorm:"column:instructor_id"`
	Published    bool      `gorm:"column:is_published"`
}

func (CourseRef) TableName() string { return "courses" }

// ModuleRef links a module to its course.
type ModuleRef struct {
	ID       uuid.UUID `gorm:"column:id"`
	CourseID uuid.UUID `gorm:"column:course_id"`
}

func (ModuleRef) TableName() string { return "course_modules" }

type lessonRef struct {
	ID       uuid.UUID `gorm:"column:id"`
	ModuleID uuid.UUID `gorm:"column:module_id"`
}

func (lessonRef) TableName() string { return "lessons" }

// Resolver answers ownership and linkage questions about the catalog
// hierarchy. Owner lookups are memoized briefly; a course's instructor never
// changes, so staleness only matters across deletes, and deletes are
// re-validated inside the write transaction anyway.
type Resolver struct {
	db     *gorm.DB
	owners *memory.Cache
}

// NewResolver creates a resolver over the given database handle.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{
		db:     db,
		owners: memory.New(30 * time.Second),
	}
}

// Course fetches the course reference for an id.
func (r *Resolver) Course(ctx context.Context, courseID uuid.UUID) (CourseRef, error) {
	var ref CourseRef
	if err := r.db.WithContext(ctx).First(&ref, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ref, ErrCourseNotFound
		}
		return ref, err
	}
	return ref, nil
}

// CourseOwner resolves the instructor owning a course.
func (r *Resolver) CourseOwner(ctx context.Context, courseID uuid.UUID) (uuid.UUID, error) {
	key := memory.Key("course-owner", courseID)
	if cached, ok := r.owners.Get(key); ok {
		return cached.(uuid.UUID), nil
	}

	ref, err := r.Course(ctx, courseID)
	if err != nil {
		return uuid.Nil, err
	}

	r.owners.Set(key, ref.InstructorID)
	return ref.InstructorID, nil
}

// Module fetches the module reference for an id.
func (r *Resolver) Module(ctx context.Context, moduleID uuid.UUID) (ModuleRef, error) {
	var ref ModuleRef
	if err := r.db.WithContext(ctx).First(&ref, "id = ?", moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ref, ErrModuleNotFound
		}
		return ref, err
	}
	return ref, nil
}

// ModuleCourse resolves the course a module belongs to. A dangling module
// (course deleted underneath it) reports the course as missing.
func (r *Resolver) ModuleCourse(ctx context.Context, moduleID uuid.UUID) (CourseRef, error) {
	module, err := r.Module(ctx, moduleID)
	if err != nil {
		return CourseRef{}, err
	}
	return r.Course(ctx, module.CourseID)
}

// ModuleOwner walks a module up to its course's instructor.
func (r *Resolver) ModuleOwner(ctx context.Context, moduleID uuid.UUID) (uuid.UUID, error) {
	module, err := r.Module(ctx, moduleID)
	if err != nil {
		return uuid.Nil, err
	}
	return r.CourseOwner(ctx, module.CourseID)
}

// LessonCourse resolves the course a lesson belongs to via its module.
func (r *Resolver) LessonCourse(ctx context.Context, lessonID uuid.UUID) (CourseRef, error) {
	var ref lessonRef
	if err := r.db.WithContext(ctx).First(&ref, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CourseRef{}, ErrLessonNotFound
		}
		return CourseRef{}, err
	}
	return r.ModuleCourse(ctx, ref.ModuleID)
}

// LessonOwner walks a lesson up to its course's instructor.
func (r *Resolver) LessonOwner(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error) {
	course, err := r.LessonCourse(ctx, lessonID)
	if err != nil {
		return uuid.Nil, err
	}
	return course.InstructorID, nil
}

// Forget drops the memoized owner for a course. Called when a course is
// deleted.
func (r *Resolver) Forget(courseID uuid.UUID) {
	r.owners.Delete(memory.Key("course-owner", courseID))
}
