package coursemodule

import "errors"

var (
	ErrModuleNotFound = errors.New("module not found")
	ErrOrderTaken     = errors.New("module order already used in this course")
	ErrTitleRequired  = errors.New("title cannot be empty")
)
