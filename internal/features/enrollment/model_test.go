package enrollment

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:enrollment_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Enrollment{}))
	require.NoError(t, db.Exec(
		"CREATE TABLE courses (id text PRIMARY KEY, instructor_id text, is_published boolean)",
	).Error)

	return db
}

func seedCourse(t *testing.T, db *gorm.DB, published bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, db.Exec(
		"INSERT INTO courses (id, instructor_id, is_published) VALUES (?, ?, ?)",
		id.String(), uuid.New().String(), published,
	).Error)
	return id
}

func TestEnrollPublishedOnly(t *testing.T) {
	db := openTestDB(t)
	student := uuid.New()

	// Missing and unpublished courses are indistinguishable to the student.
	_, err := Enroll(db, student, uuid.New())
	assert.ErrorIs(t, err, ownership.ErrCourseNotFound)

	hidden := seedCourse(t, db, false)
	_, err = Enroll(db, student, hidden)
	assert.ErrorIs(t, err, ownership.ErrCourseNotFound)

	published := seedCourse(t, db, true)
	enrollment, err := Enroll(db, student, published)
	require.NoError(t, err)
	assert.Equal(t, student, enrollment.StudentID)
	assert.Zero(t, enrollment.ProgressPercentage)
	assert.False(t, enrollment.Completed)
	assert.False(t, enrollment.EnrolledAt.IsZero())
}

func TestEnrollDuplicate(t *testing.T) {
	db := openTestDB(t)
	student := uuid.New()
	courseID := seedCourse(t, db, true)

	_, err := Enroll(db, student, courseID)
	require.NoError(t, err)

	_, err = Enroll(db, student, courseID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	// A different student can still enroll.
	_, err = Enroll(db, uuid.New(), courseID)
	assert.NoError(t, err)
}

func TestUpdateProgressBounds(t *testing.T) {
	db := openTestDB(t)
	student := uuid.New()
	enrollment, err := Enroll(db, student, seedCourse(t, db, true))
	require.NoError(t, err)

	_, err = UpdateProgress(db, enrollment.ID, student, -1)
	assert.ErrorIs(t, err, ErrInvalidProgress)

	_, err = UpdateProgress(db, enrollment.ID, student, 100.5)
	assert.ErrorIs(t, err, ErrInvalidProgress)
}

func TestUpdateProgressCompletion(t *testing.T) {
	db := openTestDB(t)
	student := uuid.New()
	enrollment, err := Enroll(db, student, seedCourse(t, db, true))
	require.NoError(t, err)

	updated, err := UpdateProgress(db, enrollment.ID, student, 40)
	require.NoError(t, err)
	assert.InDelta(t, 40, updated.ProgressPercentage, 0.001)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)

	updated, err = UpdateProgress(db, enrollment.ID, student, 100)
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)

	// Dropping back below 100 clears the completion state.
	updated, err = UpdateProgress(db, enrollment.ID, student, 80)
	require.NoError(t, err)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)
}

func TestUpdateProgressOwnership(t *testing.T) {
	db := openTestDB(t)
	student := uuid.New()
	enrollment, err := Enroll(db, student, seedCourse(t, db, true))
	require.NoError(t, err)

	// Another student's ID behaves like a missing enrollment.
	_, err = UpdateProgress(db, enrollment.ID, uuid.New(), 50)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)

	_, err = UpdateProgress(db, uuid.New(), student, 50)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestListForStudent(t *testing.T) {
	db := openTestDB(t)
	student := uuid.New()

	_, err := Enroll(db, student, seedCourse(t, db, true))
	require.NoError(t, err)
	_, err = Enroll(db, student, seedCourse(t, db, true))
	require.NoError(t, err)
	_, err = Enroll(db, uuid.New(), seedCourse(t, db, true))
	require.NoError(t, err)

	enrollments, total, err := ListForStudent(db, student, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, enrollments, 2)
}

func TestListForCourse(t *testing.T) {
	db := openTestDB(t)
	courseID := seedCourse(t, db, true)

	_, err := Enroll(db, uuid.New(), courseID)
	require.NoError(t, err)
	_, err = Enroll(db, uuid.New(), courseID)
	require.NoError(t, err)

	enrollments, total, err := ListForCourse(db, courseID, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, enrollments, 2)
}
