package coursemodule

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

	dsn := fmt.Sprintf("file:coursemodule_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&CourseModule{}))
	require.NoError(t, db.Exec(
		"CREATE TABLE courses (id text PRIMARY KEY, instructor_id text, is_published boolean)",
	).Error)
	require.NoError(t, db.Exec(
		"CREATE TABLE lessons (id text PRIMARY KEY, module_id text, title text, lesson_type text, \"order\" integer, duration integer, is_preview boolean)",
	).Error)

	return db
}

func seedCourse(t *testing.T, db *gorm.DB, instructorID uuid.UUID, published bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, db.Exec(
		"INSERT INTO courses (id, instructor_id, is_published) VALUES (?, ?, ?)",
		id.String(), instructorID.String(), published,
	).Error)
	return id
}

func TestCreateRequiresCourse(t *testing.T) {
	db := openTestDB(t)

	_, err := Create(db, CreateInput{CourseID: uuid.New(), Title: "Orphan", Order: 1})
	assert.ErrorIs(t, err, ownership.ErrCourseNotFound)
}

func TestCreateOrderConflict(t *testing.T) {
	db := openTestDB(t)
	courseID := seedCourse(t, db, uuid.New(), true)

	_, err := Create(db, CreateInput{CourseID: courseID, Title: "Intro", Order: 1})
	require.NoError(t, err)

	_, err = Create(db, CreateInput{CourseID: courseID, Title: "Also Intro", Order: 1})
	assert.ErrorIs(t, err, ErrOrderTaken)

	// Same position under another course is fine.
	otherCourse := seedCourse(t, db, uuid.New(), true)
	_, err = Create(db, CreateInput{CourseID: otherCourse, Title: "Intro", Order: 1})
	assert.NoError(t, err)
}

func TestUpdateReorder(t *testing.T) {
	db := openTestDB(t)
	courseID := seedCourse(t, db, uuid.New(), true)

	first, err := Create(db, CreateInput{CourseID: courseID, Title: "First", Order: 1})
	require.NoError(t, err)
	_, err = Create(db, CreateInput{CourseID: courseID, Title: "Second", Order: 2})
	require.NoError(t, err)

	taken := 2
	_, err = Update(db, first.ID, UpdateInput{Order: &taken})
	assert.ErrorIs(t, err, ErrOrderTaken)

	free := 3
	moved, err := Update(db, first.ID, UpdateInput{Order: &free})
	require.NoError(t, err)
	assert.Equal(t, 3, moved.Order)

	// Keeping the current position is not a conflict with itself.
	same := 3
	_, err = Update(db, first.ID, UpdateInput{Order: &same})
	assert.NoError(t, err)
}

func TestUpdateRejectsEmptyTitle(t *testing.T) {
	db := openTestDB(t)
	courseID := seedCourse(t, db, uuid.New(), true)

	module, err := Create(db, CreateInput{CourseID: courseID, Title: "Keep Me", Order: 1})
	require.NoError(t, err)

	empty := "   "
	_, err = Update(db, module.ID, UpdateInput{Title: &empty})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestUpdateReassignCourse(t *testing.T) {
	db := openTestDB(t)
	courseID := seedCourse(t, db, uuid.New(), true)
	target := seedCourse(t, db, uuid.New(), true)

	module, err := Create(db, CreateInput{CourseID: courseID, Title: "Mobile", Order: 1})
	require.NoError(t, err)
	_, err = Create(db, CreateInput{CourseID: target, Title: "Blocker", Order: 1})
	require.NoError(t, err)

	bogus := uuid.New()
	_, err = Update(db, module.ID, UpdateInput{CourseID: &bogus})
	assert.ErrorIs(t, err, ownership.ErrCourseNotFound)

	// The target course already has a module at this position.
	_, err = Update(db, module.ID, UpdateInput{CourseID: &target})
	assert.ErrorIs(t, err, ErrOrderTaken)

	order := 2
	moved, err := Update(db, module.ID, UpdateInput{CourseID: &target, Order: &order})
	require.NoError(t, err)
	assert.Equal(t, target, moved.CourseID)
	assert.Equal(t, 2, moved.Order)
}

func TestListVisibility(t *testing.T) {
	db := openTestDB(t)

	owner := uuid.New()
	publishedCourse := seedCourse(t, db, uuid.New(), true)
	hiddenCourse := seedCourse(t, db, owner, false)

	_, err := Create(db, CreateInput{CourseID: publishedCourse, Title: "Visible", Order: 1})
	require.NoError(t, err)
	_, err = Create(db, CreateInput{CourseID: hiddenCourse, Title: "Hidden", Order: 1})
	require.NoError(t, err)

	_, total, err := List(db, ListFilters{PublishedOnly: true}, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = List(db, ListFilters{OwnerID: &owner}, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	modules, total, err := List(db, ListFilters{CourseID: &hiddenCourse, PublishedOnly: true}, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, modules)
}

func TestDeleteCascadesLessons(t *testing.T) {
	db := openTestDB(t)
	courseID := seedCourse(t, db, uuid.New(), true)

	module, err := Create(db, CreateInput{CourseID: courseID, Title: "Doomed", Order: 1})
	require.NoError(t, err)

	require.NoError(t, db.Exec(
		"INSERT INTO lessons (id, module_id, title, lesson_type, \"order\", is_preview) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), module.ID.String(), "Only Lesson", "TEXT", 1, false,
	).Error)

	require.NoError(t, Delete(db, module.ID))

	_, err = Get(db, module.ID)
	assert.ErrorIs(t, err, ErrModuleNotFound)

	var lessonCount int64
	require.NoError(t, db.Table("lessons").Count(&lessonCount).Error)
	assert.Zero(t, lessonCount)

	assert.ErrorIs(t, Delete(db, module.ID), ErrModuleNotFound)
}

func TestGetDetail(t *testing.T) {
	db := openTestDB(t)
	courseID := seedCourse(t, db, uuid.New(), true)

	module, err := Create(db, CreateInput{CourseID: courseID, Title: "With Lessons", Order: 1})
	require.NoError(t, err)

	require.NoError(t, db.Exec(
		"INSERT INTO lessons (id, module_id, title, lesson_type, \"order\", is_preview) VALUES (?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), module.ID.String(), "Later", "TEXT", 2, false,
		uuid.New().String(), module.ID.String(), "Earlier", "TEXT", 1, true,
	).Error)

	detail, err := GetDetail(db, module.ID)
	require.NoError(t, err)
	require.Len(t, detail.Lessons, 2)
	assert.Equal(t, "Earlier", detail.Lessons[0].Title)
	assert.Equal(t, "Later", detail.Lessons[1].Title)
}
