package course

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/features/category"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/types"
	"github.com/academyhq/academy-server-go/pkg/validation"
)

// Course represents a catalog course owned by an instructor.
type Course struct {
	types.BaseModel

	Title        string            `gorm:"type:varchar(200);not null" json:"title"`
	Slug         string            `gorm:"type:varchar(220);not null;uniqueIndex" json:"slug"`
	Description  string            `gorm:"type:text;not null" json:"description"`
	InstructorID uuid.UUID         `gorm:"type:uuid;not null;column:instructor_id;index" json:"instructorId"`
	CategoryID   uuid.UUID         `gorm:"type:uuid;not null;column:category_id;index" json:"categoryId"`
	Price        types.Money       `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Level        types.CourseLevel `gorm:"type:varchar(20);not null;default:'BEGINNER'" json:"level"`
	Duration     *int              `gorm:"type:int" json:"duration,omitempty"`
	Tags         pq.StringArray    `gorm:"type:text[]" json:"tags,omitempty"`
	Published    bool              `gorm:"type:boolean;not null;default:false;column:is_published;index" json:"isPublished"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// ModuleSummary is the module projection embedded in course details.
type ModuleSummary struct {
	ID          uuid.UUID `gorm:"column:id" json:"id"`
	CourseID    uuid.UUID `gorm:"column:course_id" json:"courseId"`
	Title       string    `gorm:"column:title" json:"title"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	Order       int       `gorm:"column:order" json:"order"`
}

// TableName maps the summary onto the course_modules table.
func (ModuleSummary) TableName() string { return "course_modules" }

// LessonSummary is the lesson projection embedded in course details.
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

// ModuleDetail pairs a module with its ordered lessons.
type ModuleDetail struct {
	ModuleSummary
	Lessons []LessonSummary `json:"lessons"`
}

// Detail is the full course projection with nested modules and lessons.
type Detail struct {
	Course
	Modules []ModuleDetail `json:"modules"`
}

// ListFilters defines course query filters. InstructorID restricts the
// result to a single instructor's catalog, published or not; PublishedOnly
// hides unpublished courses. Neither set means no visibility filter
// (admin view).
type ListFilters struct {
	Keyword       string
	CategoryID    *uuid.UUID
	Level         *types.CourseLevel
	InstructorID  *uuid.UUID
	PublishedOnly bool
}

// CreateInput carries data for creating a course.
type CreateInput struct {
	Title        string
	Slug         string
	Description  string
	InstructorID uuid.UUID
	CategoryID   uuid.UUID
	Price        types.Money
	Level        types.CourseLevel
	Duration     *int
	Tags         []string
	Published    bool
}

// UpdateInput captures mutable course fields. The instructor is immutable.
type UpdateInput struct {
	Title            *string
	Slug             *string
	Description      *string
	CategoryID       *uuid.UUID
	Price            *types.Money
	Level            *types.CourseLevel
	Duration         *int
	DurationProvided bool
	Tags             []string
	TagsProvided     bool
	Published        *bool
}

// List retrieves paginated courses with filters.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Course, int64, error) {
	query := db.Model(&Course{})

	if filters.Keyword != "" {
		keyword := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", keyword, keyword)
	}

	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}

	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}

	if filters.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filters.InstructorID)
	}

	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []Course
	if err := query.Order("created_at DESC").Offset(params.Skip).Limit(params.Limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// Get retrieves a course by ID.
func Get(db *gorm.DB, id uuid.UUID) (Course, error) {
	var crs Course
	if err := db.First(&crs, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crs, ErrCourseNotFound
		}
		return crs, err
	}
	return crs, nil
}

// GetDetail retrieves a course with its ordered modules and lessons.
func GetDetail(db *gorm.DB, id uuid.UUID) (Detail, error) {
	crs, err := Get(db, id)
	if err != nil {
		return Detail{}, err
	}

	var modules []ModuleSummary
	if err := db.Where("course_id = ?", id).Order("\"order\" ASC").Find(&modules).Error; err != nil {
		return Detail{}, err
	}

	detail := Detail{Course: crs, Modules: make([]ModuleDetail, 0, len(modules))}
	if len(modules) == 0 {
		return detail, nil
	}

	moduleIDs := make([]uuid.UUID, 0, len(modules))
	for _, m := range modules {
		moduleIDs = append(moduleIDs, m.ID)
	}

	var lessons []LessonSummary
	if err := db.Where("module_id IN ?", moduleIDs).Order("\"order\" ASC").Find(&lessons).Error; err != nil {
		return Detail{}, err
	}

	byModule := make(map[uuid.UUID][]LessonSummary, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}

	for _, m := range modules {
		entry := ModuleDetail{ModuleSummary: m, Lessons: byModule[m.ID]}
		if entry.Lessons == nil {
			entry.Lessons = []LessonSummary{}
		}
		detail.Modules = append(detail.Modules, entry)
	}

	return detail, nil
}

// Create inserts a new course. The category must exist; an empty slug is
// derived from the title.
func Create(db *gorm.DB, input CreateInput) (Course, error) {
	if !input.Level.Valid() {
		return Course{}, ErrInvalidLevel
	}
	if input.Price.IsNegative() {
		return Course{}, ErrInvalidPrice
	}

	title := strings.TrimSpace(input.Title)
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = validation.Slugify(title)
	} else if !validation.ValidSlug(slug) {
		return Course{}, ErrInvalidSlug
	}

	crs := Course{
		Title:        title,
		Slug:         slug,
		Description:  strings.TrimSpace(input.Description),
		InstructorID: input.InstructorID,
		CategoryID:   input.CategoryID,
		Price:        input.Price,
		Level:        input.Level,
		Duration:     input.Duration,
		Tags:         input.Tags,
		Published:    input.Published,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := category.Get(tx, input.CategoryID); err != nil {
			return err
		}
		if err := checkSlugFree(tx, slug, uuid.Nil); err != nil {
			return err
		}
		return tx.Create(&crs).Error
	})
	if err != nil {
		return Course{}, err
	}

	return crs, nil
}

// Update modifies an existing course. Changing the title re-derives the slug
// unless one is given explicitly.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Course, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		crs, err := Get(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		slug := crs.Slug

		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return ErrTitleRequired
			}
			updates["title"] = title
			if input.Slug == nil {
				slug = validation.Slugify(title)
				updates["slug"] = slug
			}
		}

		if input.Slug != nil {
			slug = strings.TrimSpace(*input.Slug)
			if !validation.ValidSlug(slug) {
				return ErrInvalidSlug
			}
			updates["slug"] = slug
		}

		if input.Description != nil {
			updates["description"] = strings.TrimSpace(*input.Description)
		}

		if input.CategoryID != nil {
			if _, err := category.Get(tx, *input.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *input.CategoryID
		}

		if input.Price != nil {
			if input.Price.IsNegative() {
				return ErrInvalidPrice
			}
			updates["price"] = *input.Price
		}

		if input.Level != nil {
			if !input.Level.Valid() {
				return ErrInvalidLevel
			}
			updates["level"] = *input.Level
		}

		if input.DurationProvided {
			updates["duration"] = input.Duration
		}

		if input.TagsProvided {
			updates["tags"] = pq.StringArray(input.Tags)
		}

		if input.Published != nil {
			updates["is_published"] = *input.Published
		}

		if len(updates) == 0 {
			return nil
		}

		if slug != crs.Slug {
			if err := checkSlugFree(tx, slug, id); err != nil {
				return err
			}
		}

		return tx.Model(&Course{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return Course{}, err
	}

	return Get(db, id)
}

// Delete removes a course and cascades to its modules and lessons.
func Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := Get(tx, id); err != nil {
			return err
		}

		moduleIDs := tx.Model(&ModuleSummary{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("module_id IN (?)", moduleIDs).Delete(&LessonSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&ModuleSummary{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Course{}, "id = ?", id).Error
	})
}

func checkSlugFree(tx *gorm.DB, slug string, selfID uuid.UUID) error {
	query := tx.Model(&Course{}).Select("id").Where("slug = ?", slug)
	if selfID != uuid.Nil {
		query = query.Where("id != ?", selfID)
	}

	var existing Course
	if err := query.First(&existing).Error; err == nil {
		return ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
