package enrollment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/types"
)

// Enrollment links a student to a course they are taking.
type Enrollment struct {
	types.BaseModel

	StudentID          uuid.UUID  `gorm:"type:uuid;not null;column:student_id;uniqueIndex:idx_enrollment_student_course,priority:1" json:"studentId"`
	CourseID           uuid.UUID  `gorm:"type:uuid;not null;column:course_id;index;uniqueIndex:idx_enrollment_student_course,priority:2" json:"courseId"`
	ProgressPercentage float64    `gorm:"type:numeric(5,2);not null;default:0;column:progress_percentage" json:"progressPercentage"`
	Completed          bool       `gorm:"type:boolean;not null;default:false" json:"completed"`
	EnrolledAt         time.Time  `gorm:"not null;column:enrolled_at" json:"enrolledAt"`
	CompletedAt        *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
}

// TableName overrides the default table name.
func (Enrollment) TableName() string { return "enrollments" }

// Enroll creates an enrollment in a published course. Unpublished and
// missing courses look identical to the student.
func Enroll(db *gorm.DB, studentID, courseID uuid.UUID) (Enrollment, error) {
	enrollment := Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var crs ownership.CourseRef
		if err := tx.First(&crs, "id = ?", courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ownership.ErrCourseNotFound
			}
			return err
		}
		if !crs.Published {
			return ownership.ErrCourseNotFound
		}

		var existing Enrollment
		err := tx.Select("id").First(&existing, "student_id = ? AND course_id = ?", studentID, courseID).Error
		if err == nil {
			return ErrAlreadyEnrolled
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&enrollment).Error
	})
	if err != nil {
		return Enrollment{}, err
	}

	return enrollment, nil
}

// Get retrieves an enrollment by ID.
func Get(db *gorm.DB, id uuid.UUID) (Enrollment, error) {
	var enrollment Enrollment
	if err := db.First(&enrollment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enrollment, ErrEnrollmentNotFound
		}
		return enrollment, err
	}
	return enrollment, nil
}

// ListForStudent retrieves a student's enrollments, newest first.
func ListForStudent(db *gorm.DB, studentID uuid.UUID, params pagination.Params) ([]Enrollment, int64, error) {
	query := db.Model(&Enrollment{}).Where("student_id = ?", studentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []Enrollment
	if err := query.Order("enrolled_at DESC").Offset(params.Skip).Limit(params.Limit).Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// ListForCourse retrieves the enrollments of a course, newest first.
func ListForCourse(db *gorm.DB, courseID uuid.UUID, params pagination.Params) ([]Enrollment, int64, error) {
	query := db.Model(&Enrollment{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []Enrollment
	if err := query.Order("enrolled_at DESC").Offset(params.Skip).Limit(params.Limit).Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// UpdateProgress sets a student's progress on their own enrollment. Reaching
// 100 marks the enrollment completed; dropping below clears the completion.
func UpdateProgress(db *gorm.DB, id, studentID uuid.UUID, progress float64) (Enrollment, error) {
	if progress < 0 || progress > 100 {
		return Enrollment{}, ErrInvalidProgress
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		enrollment, err := Get(tx, id)
		if err != nil {
			return err
		}
		if enrollment.StudentID != studentID {
			return ErrEnrollmentNotFound
		}

		updates := map[string]interface{}{
			"progress_percentage": progress,
		}

		if progress >= 100 {
			updates["completed"] = true
			if enrollment.CompletedAt == nil {
				now := time.Now().UTC()
				updates["completed_at"] = &now
			}
		} else {
			updates["completed"] = false
			updates["completed_at"] = nil
		}

		return tx.Model(&Enrollment{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return Enrollment{}, err
	}

	return Get(db, id)
}
