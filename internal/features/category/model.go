package category

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/types"
	"github.com/academyhq/academy-server-go/pkg/validation"
)

// Category groups courses in the catalog.
type Category struct {
	types.BaseModel

	Name        string  `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug        string  `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
}

// TableName overrides the default table name.
func (Category) TableName() string { return "categories" }

type courseRow struct {
	ID uuid.UUID `gorm:"column:id"`
}

func (courseRow) TableName() string { return "courses" }

// ListFilters defines category query filters.
type ListFilters struct {
	Keyword string
}

// CreateInput carries data for creating a category.
type CreateInput struct {
	Name        string
	Slug        string
	Description *string
}

// UpdateInput captures mutable category fields.
type UpdateInput struct {
	Name                *string
	Slug                *string
	Description         *string
	DescriptionProvided bool
}

// List queries categories with filters and pagination.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Category, int64, error) {
	query := db.Model(&Category{})

	if filters.Keyword != "" {
		keyword := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(name) LIKE ?", keyword)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []Category
	if err := query.Order("name ASC").Offset(params.Skip).Limit(params.Limit).Find(&categories).Error; err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// Get retrieves a category by ID.
func Get(db *gorm.DB, id uuid.UUID) (Category, error) {
	var cat Category
	if err := db.First(&cat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cat, ErrCategoryNotFound
		}
		return cat, err
	}
	return cat, nil
}

// GetBySlug retrieves a category by slug.
func GetBySlug(db *gorm.DB, slug string) (Category, error) {
	var cat Category
	if err := db.First(&cat, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cat, ErrCategoryNotFound
		}
		return cat, err
	}
	return cat, nil
}

// Create inserts a new category. An empty slug is derived from the name.
func Create(db *gorm.DB, input CreateInput) (Category, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = validation.Slugify(name)
	} else if !validation.ValidSlug(slug) {
		return Category{}, ErrInvalidSlug
	}

	cat := Category{
		Name:        name,
		Slug:        slug,
		Description: input.Description,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, name, slug, uuid.Nil); err != nil {
			return err
		}
		return tx.Create(&cat).Error
	})
	if err != nil {
		return Category{}, err
	}

	return cat, nil
}

// Update modifies an existing category. Renaming re-derives the slug unless
// one is given explicitly.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Category, error) {
	var cat Category

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		cat, err = Get(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		name := cat.Name
		slug := cat.Slug

		if input.Name != nil {
			name = strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrNameRequired
			}
			updates["name"] = name
			if input.Slug == nil {
				slug = validation.Slugify(name)
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

		if input.DescriptionProvided {
			updates["description"] = input.Description
		}

		if len(updates) == 0 {
			return nil
		}

		if err := checkUnique(tx, name, slug, id); err != nil {
			return err
		}

		return tx.Model(&Category{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return cat, err
	}

	return Get(db, id)
}

// Delete removes a category. A category that still has courses is protected.
func Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := Get(tx, id); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&courseRow{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}

		return tx.Delete(&Category{}, "id = ?", id).Error
	})
}

func checkUnique(tx *gorm.DB, name, slug string, selfID uuid.UUID) error {
	var existing Category

	query := tx.Select("id").Where("LOWER(name) = ?", strings.ToLower(name))
	if selfID != uuid.Nil {
		query = query.Where("id != ?", selfID)
	}
	if err := query.First(&existing).Error; err == nil {
		return ErrNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	query = tx.Select("id").Where("slug = ?", slug)
	if selfID != uuid.Nil {
		query = query.Where("id != ?", selfID)
	}
	if err := query.First(&existing).Error; err == nil {
		return ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}
