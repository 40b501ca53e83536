package course

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/academyhq/academy-server-go/internal/features/category"
	"github.com/academyhq/academy-server-go/pkg/pagination"
	"github.com/academyhq/academy-server-go/pkg/types"
)

func openTestDB(t *testing.T) (*gorm.DB, category.Category) {
	t.Helper()

	dsn := fmt.Sprintf("file:course_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&category.Category{}, &Course{}))
	require.NoError(t, db.Exec(
		"CREATE TABLE course_modules (id text PRIMARY KEY, course_id text, title text, description text, \"order\" integer)",
	).Error)
	require.NoError(t, db.Exec(
		"CREATE TABLE lessons (id text PRIMARY KEY, module_id text, title text, lesson_type text, \"order\" integer, duration integer, is_preview boolean)",
	).Error)

	cat, err := category.Create(db, category.CreateInput{Name: "Programming"})
	require.NoError(t, err)

	return db, cat
}

func newCourse(t *testing.T, db *gorm.DB, categoryID uuid.UUID, title string, published bool) Course {
	t.Helper()

	crs, err := Create(db, CreateInput{
		Title:        title,
		Description:  "about " + title,
		InstructorID: uuid.New(),
		CategoryID:   categoryID,
		Price:        types.NewMoney(49.99),
		Level:        types.LevelBeginner,
		Published:    published,
	})
	require.NoError(t, err)
	return crs
}

func TestCreateDerivesSlug(t *testing.T) {
	db, cat := openTestDB(t)

	crs := newCourse(t, db, cat.ID, "Go From Scratch", false)
	assert.Equal(t, "go-from-scratch", crs.Slug)
	assert.False(t, crs.Published)
}

func TestCreateRequiresCategory(t *testing.T) {
	db, _ := openTestDB(t)

	_, err := Create(db, CreateInput{
		Title:        "Orphan",
		Description:  "no category",
		InstructorID: uuid.New(),
		CategoryID:   uuid.New(),
		Level:        types.LevelBeginner,
	})
	assert.ErrorIs(t, err, category.ErrCategoryNotFound)
}

func TestCreateValidation(t *testing.T) {
	db, cat := openTestDB(t)

	_, err := Create(db, CreateInput{
		Title:        "Bad Level",
		Description:  "x",
		InstructorID: uuid.New(),
		CategoryID:   cat.ID,
		Level:        types.CourseLevel("EXPERT"),
	})
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = Create(db, CreateInput{
		Title:        "Bad Price",
		Description:  "x",
		InstructorID: uuid.New(),
		CategoryID:   cat.ID,
		Level:        types.LevelBeginner,
		Price:        types.NewMoney(-5),
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestCreateRejectsMalformedSlug(t *testing.T) {
	db, cat := openTestDB(t)

	_, err := Create(db, CreateInput{
		Title:        "Custom Slug",
		Slug:         "Bad Slug!",
		Description:  "x",
		InstructorID: uuid.New(),
		CategoryID:   cat.ID,
		Level:        types.LevelBeginner,
	})
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestCreateSlugConflict(t *testing.T) {
	db, cat := openTestDB(t)

	newCourse(t, db, cat.ID, "Duplicate Title", false)

	_, err := Create(db, CreateInput{
		Title:        "Duplicate Title",
		Description:  "second",
		InstructorID: uuid.New(),
		CategoryID:   cat.ID,
		Level:        types.LevelBeginner,
	})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestUpdateRetitleRederivesSlug(t *testing.T) {
	db, cat := openTestDB(t)

	crs := newCourse(t, db, cat.ID, "Old Title", false)

	newTitle := "Brand New Title"
	updated, err := Update(db, crs.ID, UpdateInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "brand-new-title", updated.Slug)
	assert.Equal(t, crs.InstructorID, updated.InstructorID)
}

func TestUpdateSlugConflict(t *testing.T) {
	db, cat := openTestDB(t)

	newCourse(t, db, cat.ID, "Taken Title", false)
	crs := newCourse(t, db, cat.ID, "Other Title", false)

	slug := "taken-title"
	_, err := Update(db, crs.ID, UpdateInput{Slug: &slug})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestUpdateValidation(t *testing.T) {
	db, cat := openTestDB(t)

	crs := newCourse(t, db, cat.ID, "Valid Course", false)

	badSlug := "Bad Slug!"
	_, err := Update(db, crs.ID, UpdateInput{Slug: &badSlug})
	assert.ErrorIs(t, err, ErrInvalidSlug)

	empty := "   "
	_, err = Update(db, crs.ID, UpdateInput{Title: &empty})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestUpdateMissingCategory(t *testing.T) {
	db, cat := openTestDB(t)

	crs := newCourse(t, db, cat.ID, "Some Course", false)

	bogus := uuid.New()
	_, err := Update(db, crs.ID, UpdateInput{CategoryID: &bogus})
	assert.ErrorIs(t, err, category.ErrCategoryNotFound)
}

func TestListVisibility(t *testing.T) {
	db, cat := openTestDB(t)

	published := newCourse(t, db, cat.ID, "Published One", true)
	hidden := newCourse(t, db, cat.ID, "Hidden One", false)

	courses, total, err := List(db, ListFilters{PublishedOnly: true}, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, published.ID, courses[0].ID)

	// Filtering by instructor yields that instructor's catalog only,
	// drafts included.
	owner := hidden.InstructorID
	courses, total, err = List(db, ListFilters{InstructorID: &owner}, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, hidden.ID, courses[0].ID)

	// An instructor owning nothing gets an empty catalog, not the
	// published courses of others.
	other := uuid.New()
	_, total, err = List(db, ListFilters{InstructorID: &other}, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	// No visibility filter is the admin view.
	_, total, err = List(db, ListFilters{}, pagination.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestGetDetailOrdering(t *testing.T) {
	db, cat := openTestDB(t)

	crs := newCourse(t, db, cat.ID, "Structured Course", true)

	moduleA := uuid.New()
	moduleB := uuid.New()
	require.NoError(t, db.Exec(
		"INSERT INTO course_modules (id, course_id, title, \"order\") VALUES (?, ?, ?, ?), (?, ?, ?, ?)",
		moduleB.String(), crs.ID.String(), "Second Module", 2,
		moduleA.String(), crs.ID.String(), "First Module", 1,
	).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO lessons (id, module_id, title, lesson_type, \"order\", is_preview) VALUES (?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), moduleA.String(), "Lesson Two", "TEXT", 2, false,
		uuid.New().String(), moduleA.String(), "Lesson One", "TEXT", 1, false,
	).Error)

	detail, err := GetDetail(db, crs.ID)
	require.NoError(t, err)
	require.Len(t, detail.Modules, 2)
	assert.Equal(t, "First Module", detail.Modules[0].Title)
	assert.Equal(t, "Second Module", detail.Modules[1].Title)

	require.Len(t, detail.Modules[0].Lessons, 2)
	assert.Equal(t, "Lesson One", detail.Modules[0].Lessons[0].Title)
	assert.Equal(t, "Lesson Two", detail.Modules[0].Lessons[1].Title)
	assert.Empty(t, detail.Modules[1].Lessons)
}

func TestDeleteCascades(t *testing.T) {
	db, cat := openTestDB(t)

	crs := newCourse(t, db, cat.ID, "Doomed Course", false)

	moduleID := uuid.New()
	require.NoError(t, db.Exec(
		"INSERT INTO course_modules (id, course_id, title, \"order\") VALUES (?, ?, ?, ?)",
		moduleID.String(), crs.ID.String(), "Only Module", 1,
	).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO lessons (id, module_id, title, lesson_type, \"order\", is_preview) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), moduleID.String(), "Only Lesson", "TEXT", 1, false,
	).Error)

	require.NoError(t, Delete(db, crs.ID))

	_, err := Get(db, crs.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	var moduleCount, lessonCount int64
	require.NoError(t, db.Table("course_modules").Count(&moduleCount).Error)
	require.NoError(t, db.Table("lessons").Count(&lessonCount).Error)
	assert.Zero(t, moduleCount)
	assert.Zero(t, lessonCount)

	assert.ErrorIs(t, Delete(db, crs.ID), ErrCourseNotFound)
}
