package lesson

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/types"
	"github.com/academyhq/academy-server-go/pkg/validation"
)

// Lesson is a single unit of content inside a module.
type Lesson struct {
	types.BaseModel

	ModuleID     uuid.UUID        `gorm:"type:uuid;not null;column:module_id;index;uniqueIndex:idx_lesson_module_order,priority:1" json:"moduleId"`
	Title        string           `gorm:"type:varchar(200);not null" json:"title"`
	Content      *string          `gorm:"type:text" json:"content,omitempty"`
	LessonType   types.LessonType `gorm:"type:varchar(20);not null;column:lesson_type" json:"lessonType"`
	Order        int              `gorm:"type:int;not null;uniqueIndex:idx_lesson_module_order,priority:2" json:"order"`
	VideoURL     *string          `gorm:"type:text;column:video_url" json:"videoUrl,omitempty"`
	DocumentFile *string          `gorm:"type:text;column:document_file" json:"documentFile,omitempty"`
	Duration     *int             `gorm:"type:int" json:"duration,omitempty"`
	Preview      bool             `gorm:"type:boolean;not null;default:false;column:is_preview" json:"isPreview"`
}

// TableName overrides the default table name.
func (Lesson) TableName() string { return "lessons" }

// ListFilters defines lesson query filters. Visibility mirrors the course
// rules, reached through the module join.
type ListFilters struct {
	ModuleID      *uuid.UUID
	PublishedOnly bool
	OwnerID       *uuid.UUID
}

// CreateInput carries data for creating a lesson.
type CreateInput struct {
	ModuleID     uuid.UUID
	Title        string
	Content      *string
	LessonType   types.LessonType
	Order        int
	VideoURL     *string
	DocumentFile *string
	Duration     *int
	Preview      bool
}

// UpdateInput captures mutable lesson fields.
type UpdateInput struct {
	ModuleID             *uuid.UUID
	Title                *string
	Content              *string
	ContentProvided      bool
	LessonType           *types.LessonType
	Order                *int
	VideoURL             *string
	VideoURLProvided     bool
	DocumentFile         *string
	DocumentFileProvided bool
	Duration             *int
	DurationProvided     bool
	Preview              *bool
}

// List retrieves paginated lessons ordered by position.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Lesson, int64, error) {
	query := db.Model(&Lesson{})

	if filters.ModuleID != nil {
		query = query.Where("module_id = ?", *filters.ModuleID)
	}

	if filters.OwnerID != nil {
		query = query.
			Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
			Joins("JOIN courses ON courses.id = course_modules.course_id").
			Where("courses.is_published = ? OR courses.instructor_id = ?", true, *filters.OwnerID)
	} else if filters.PublishedOnly {
		query = query.
			Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
			Joins("JOIN courses ON courses.id = course_modules.course_id").
			Where("courses.is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var lessons []Lesson
	if err := query.Order("\"order\" ASC").Offset(params.Skip).Limit(params.Limit).Find(&lessons).Error; err != nil {
		return nil, 0, err
	}

	return lessons, total, nil
}

// Get retrieves a lesson by ID.
func Get(db *gorm.DB, id uuid.UUID) (Lesson, error) {
	var lsn Lesson
	if err := db.First(&lsn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lsn, ErrLessonNotFound
		}
		return lsn, err
	}
	return lsn, nil
}

// Create inserts a new lesson. The parent module is re-read inside the
// transaction so a concurrent cascade delete cannot produce an orphan.
func Create(db *gorm.DB, input CreateInput) (Lesson, error) {
	if !input.LessonType.Valid() {
		return Lesson{}, ErrInvalidType
	}

	if err := checkTypeFields(input.LessonType, input.VideoURL, input.DocumentFile); err != nil {
		return Lesson{}, err
	}

	lsn := Lesson{
		ModuleID:     input.ModuleID,
		Title:        strings.TrimSpace(input.Title),
		Content:      input.Content,
		LessonType:   input.LessonType,
		Order:        input.Order,
		VideoURL:     input.VideoURL,
		DocumentFile: input.DocumentFile,
		Duration:     input.Duration,
		Preview:      input.Preview,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var parent ownership.ModuleRef
		if err := tx.First(&parent, "id = ?", input.ModuleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ownership.ErrModuleNotFound
			}
			return err
		}

		if err := checkOrderFree(tx, input.ModuleID, input.Order, uuid.Nil); err != nil {
			return err
		}

		return tx.Create(&lsn).Error
	})
	if err != nil {
		return Lesson{}, err
	}

	return lsn, nil
}

// Update modifies an existing lesson. Moving it under another module re-reads
// the target module inside the transaction.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Lesson, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		lsn, err := Get(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		moduleID := lsn.ModuleID
		order := lsn.Order
		lessonType := lsn.LessonType
		videoURL := lsn.VideoURL
		documentFile := lsn.DocumentFile

		if input.ModuleID != nil && *input.ModuleID != lsn.ModuleID {
			var parent ownership.ModuleRef
			if err := tx.First(&parent, "id = ?", *input.ModuleID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ownership.ErrModuleNotFound
				}
				return err
			}
			moduleID = *input.ModuleID
			updates["module_id"] = moduleID
		}

		if input.Title != nil {
			trimmed := strings.TrimSpace(*input.Title)
			if trimmed == "" {
				return ErrTitleRequired
			}
			updates["title"] = trimmed
		}

		if input.ContentProvided {
			updates["content"] = input.Content
		}

		if input.LessonType != nil {
			if !input.LessonType.Valid() {
				return ErrInvalidType
			}
			lessonType = *input.LessonType
			updates["lesson_type"] = lessonType
		}

		if input.Order != nil {
			order = *input.Order
			updates["order"] = order
		}

		if input.VideoURLProvided {
			videoURL = input.VideoURL
			updates["video_url"] = input.VideoURL
		}

		if input.DocumentFileProvided {
			documentFile = input.DocumentFile
			updates["document_file"] = input.DocumentFile
		}

		if input.DurationProvided {
			updates["duration"] = input.Duration
		}

		if input.Preview != nil {
			updates["is_preview"] = *input.Preview
		}

		if len(updates) == 0 {
			return nil
		}

		if err := checkTypeFields(lessonType, videoURL, documentFile); err != nil {
			return err
		}

		if moduleID != lsn.ModuleID || order != lsn.Order {
			if err := checkOrderFree(tx, moduleID, order, id); err != nil {
				return err
			}
		}

		return tx.Model(&Lesson{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return Lesson{}, err
	}

	return Get(db, id)
}

// Delete removes a lesson.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Lesson{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLessonNotFound
	}
	return nil
}

// checkTypeFields enforces the per-type content rules: VIDEO needs an
// allowed-host URL, DOCUMENT files must carry an allowed extension.
func checkTypeFields(lessonType types.LessonType, videoURL, documentFile *string) error {
	switch lessonType {
	case types.LessonVideo:
		if videoURL == nil || strings.TrimSpace(*videoURL) == "" {
			return ErrVideoURLRequired
		}
		return validation.CheckVideoURL(*videoURL)
	case types.LessonDocument:
		if documentFile != nil && *documentFile != "" {
			return validation.CheckDocumentName(*documentFile)
		}
	}
	return nil
}

func checkOrderFree(tx *gorm.DB, moduleID uuid.UUID, order int, selfID uuid.UUID) error {
	query := tx.Model(&Lesson{}).Select("id").
		Where("module_id = ? AND \"order\" = ?", moduleID, order)
	if selfID != uuid.Nil {
		query = query.Where("id != ?", selfID)
	}

	var existing Lesson
	if err := query.First(&existing).Error; err == nil {
		return ErrOrderTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
