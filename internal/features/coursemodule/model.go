package coursemodule

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/types"
)

// CourseModule is an ordered section of a course.
type CourseModule struct {
	types.BaseModel

	CourseID    uuid.UUID `gorm:"type:uuid;not null;column:course_id;index;uniqueIndex:idx_module_course_order,priority:1" json:"courseId"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Order       int       `gorm:"type:int;not null;uniqueIndex:idx_module_course_order,priority:2" json:"order"`
}

// TableName overrides the default table name.
func (CourseModule) TableName() string { return "course_modules" }

type lessonRow struct {
	ID       uuid.UUID `gorm:"column:id"`
	ModuleID uuid.UUID `gorm:"column:module_id"`
}

func (lessonRow) TableName() string { return "lessons" }

// LessonSummary is the lesson projection embedded in module details.
type LessonSummary struct {
	ID         uuid.UUID        `gorm:"column:id" json:"id"`
	ModuleID   uuid.UUID        `gorm:"column:module_id" json:"moduleId"`
	Title      string           `gorm:"column:title" json:"title"`
	LessonType types.LessonType `gorm:"column:lesson_type" json:"lessonType"`
	Order      int              `gorm:"column:order" json:"order"`
	Duration   *int             `gorm:"column:duration" json:"duration,omitempty"`
	Preview    bool             `gorm:"column:is_preview" json:"isPreview"`
}

// TableName maps the summary onto the lessons table.
func (LessonSummary) TableName() string { return "lessons" }

// Detail pairs a module with its ordered lessons.
type Detail struct {
	CourseModule
	Lessons []LessonSummary `json:"lessons"`
}

// ListFilters defines module query filters. Visibility mirrors the course
// rules: OwnerID includes that instructor's unpublished courses,
// PublishedOnly restricts to published courses, neither means no filter.
type ListFilters struct {
	CourseID      *uuid.UUID
	PublishedOnly bool
	OwnerID       *uuid.UUID
}

// CreateInput carries data for creating a module.
type CreateInput struct {
	CourseID    uuid.UUID
	Title       string
	Description *string
	Order       int
}

// UpdateInput captures mutable module fields.
type UpdateInput struct {
	CourseID            *uuid.UUID
	Title               *string
	Description         *string
	DescriptionProvided bool
	Order               *int
}

// List retrieves paginated modules ordered by position.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]CourseModule, int64, error) {
	query := db.Model(&CourseModule{})

	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}

	if filters.OwnerID != nil {
		query = query.Joins("JOIN courses ON courses.id = course_modules.course_id").
			Where("courses.is_published = ? OR courses.instructor_id = ?", true, *filters.OwnerID)
	} else if filters.PublishedOnly {
		query = query.Joins("JOIN courses ON courses.id = course_modules.course_id").
			Where("courses.is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var modules []CourseModule
	if err := query.Order("\"order\" ASC").Offset(params.Skip).Limit(params.Limit).Find(&modules).Error; err != nil {
		return nil, 0, err
	}

	return modules, total, nil
}

// Get retrieves a module by ID.
func Get(db *gorm.DB, id uuid.UUID) (CourseModule, error) {
	var module CourseModule
	if err := db.First(&module, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return module, ErrModuleNotFound
		}
		return module, err
	}
	return module, nil
}

// GetDetail retrieves a module with its ordered lessons.
func GetDetail(db *gorm.DB, id uuid.UUID) (Detail, error) {
	module, err := Get(db, id)
	if err != nil {
		return Detail{}, err
	}

	var lessons []LessonSummary
	if err := db.Where("module_id = ?", id).Order("\"order\" ASC").Find(&lessons).Error; err != nil {
		return Detail{}, err
	}

	return Detail{CourseModule: module, Lessons: lessons}, nil
}

// Create inserts a new module. The parent course is re-read inside the
// transaction so a concurrent course delete cannot produce an orphan.
func Create(db *gorm.DB, input CreateInput) (CourseModule, error) {
	module := CourseModule{
		CourseID:    input.CourseID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Order:       input.Order,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var parent ownership.CourseRef
		if err := tx.First(&parent, "id = ?", input.CourseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ownership.ErrCourseNotFound
			}
			return err
		}

		if err := checkOrderFree(tx, input.CourseID, input.Order, uuid.Nil); err != nil {
			return err
		}

		return tx.Create(&module).Error
	})
	if err != nil {
		return CourseModule{}, err
	}

	return module, nil
}

// Update modifies an existing module. Moving it under another course re-reads
// the target course inside the transaction.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (CourseModule, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		module, err := Get(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		courseID := module.CourseID
		order := module.Order

		if input.CourseID != nil && *input.CourseID != module.CourseID {
			var parent ownership.CourseRef
			if err := tx.First(&parent, "id = ?", *input.CourseID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ownership.ErrCourseNotFound
				}
				return err
			}
			courseID = *input.CourseID
			updates["course_id"] = courseID
		}

		if input.Title != nil {
			trimmed := strings.TrimSpace(*input.Title)
			if trimmed == "" {
				return ErrTitleRequired
			}
			updates["title"] = trimmed
		}

		if input.DescriptionProvided {
			updates["description"] = input.Description
		}

		if input.Order != nil {
			order = *input.Order
			updates["order"] = order
		}

		if len(updates) == 0 {
			return nil
		}

		if courseID != module.CourseID || order != module.Order {
			if err := checkOrderFree(tx, courseID, order, id); err != nil {
				return err
			}
		}

		return tx.Model(&CourseModule{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return CourseModule{}, err
	}

	return Get(db, id)
}

// Delete removes a module and cascades to its lessons.
func Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := Get(tx, id); err != nil {
			return err
		}

		if err := tx.Where("module_id = ?", id).Delete(&lessonRow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&CourseModule{}, "id = ?", id).Error
	})
}

func checkOrderFree(tx *gorm.DB, courseID uuid.UUID, order int, selfID uuid.UUID) error {
	query := tx.Model(&CourseModule{}).Select("id").
		Where("course_id = ? AND \"order\" = ?", courseID, order)
	if selfID != uuid.Nil {
		query = query.Where("id != ?", selfID)
	}

	var existing CourseModule
	if err := query.First(&existing).Error; err == nil {
		return ErrOrderTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
