package enrollment

import "errors"

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrInvalidProgress    = errors.New("progress must be between 0 and 100")
	ErrStudentsOnly       = errors.New("only students can enroll")
)
