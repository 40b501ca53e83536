package lesson

import "errors"

var (
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrTitleRequired    = errors.New("title cannot be empty")
	ErrOrderTaken       = errors.New("lesson order already used in this module")
	ErrInvalidType      = errors.New("lessonType must be VIDEO, ARTICLE or DOCUMENT")
	ErrVideoURLRequired = errors.New("video lessons require a videoUrl")
	ErrNotDocumentType  = errors.New("lesson does not accept document uploads")
)
