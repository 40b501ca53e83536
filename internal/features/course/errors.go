package course

import "errors"

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrSlugTaken      = errors.New("course slug already exists")
	ErrInvalidSlug    = errors.New("slug must contain only lowercase letters, digits and hyphens")
	ErrTitleRequired  = errors.New("title cannot be empty")
	ErrInvalidLevel   = errors.New("level must be BEGINNER, INTERMEDIATE or ADVANCED")
	ErrInvalidPrice   = errors.New("price cannot be negative")
)
