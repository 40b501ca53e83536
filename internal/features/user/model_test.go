package user

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/academyhq/academy-server-go/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:user_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	return db
}

func newUser(t *testing.T, db *gorm.DB, email string) User {
	t.Helper()

	usr, err := Create(db, CreateInput{
		FullName: "Test Person",
		Email:    email,
		Password: "correct-horse",
		Role:     types.RoleStudent,
	})
	require.NoError(t, err)
	return usr
}

func TestCreateNormalizesEmail(t *testing.T) {
	db := openTestDB(t)

	usr := newUser(t, db, "  Mixed.Case@Example.COM ")
	assert.Equal(t, "mixed.case@example.com", usr.Email)

	found, err := GetByEmail(db, "MIXED.case@example.com")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, found.ID)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	db := openTestDB(t)

	newUser(t, db, "taken@example.com")

	_, err := Create(db, CreateInput{
		FullName: "Second Person",
		Email:    "TAKEN@example.com",
		Password: "correct-horse",
		Role:     types.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateRejectsShortPassword(t *testing.T) {
	db := openTestDB(t)

	_, err := Create(db, CreateInput{
		FullName: "Short Pass",
		Email:    "short@example.com",
		Password: "tiny",
		Role:     types.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestUpdateRejectsEmptyFullName(t *testing.T) {
	db := openTestDB(t)

	usr := newUser(t, db, "profile@example.com")

	empty := "   "
	_, err := Update(db, usr.ID, UpdateInput{FullName: &empty})
	assert.ErrorIs(t, err, ErrNameRequired)

	// The stored name is untouched after the rejected update.
	kept, err := Get(db, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Person", kept.FullName)
}

func TestPasswordsAreHashed(t *testing.T) {
	db := openTestDB(t)

	usr := newUser(t, db, "hash@example.com")
	assert.NotEqual(t, "correct-horse", usr.Password)
	assert.True(t, usr.ComparePassword("correct-horse"))
	assert.False(t, usr.ComparePassword("wrong-horse"))
}
