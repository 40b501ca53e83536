package category

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrNameTaken        = errors.New("category name already exists")
	ErrSlugTaken        = errors.New("category slug already exists")
	ErrInvalidSlug      = errors.New("slug must contain only lowercase letters, digits and hyphens")
	ErrNameRequired     = errors.New("name cannot be empty")
	ErrCategoryInUse    = errors.New("category still has courses")
)
