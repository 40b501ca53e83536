package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/academyhq/academy-server-go/pkg/types"
)

func TestAuthorizeReadsAreOpen(t *testing.T) {
	owner := uuid.New()

	for _, actor := range []Actor{
		Anonymous(),
		{ID: uuid.New(), Role: types.RoleStudent},
		{ID: uuid.New(), Role: types.RoleInstructor},
		{ID: owner, Role: types.RoleInstructor},
		{ID: uuid.New(), Role: types.RoleAdmin},
	} {
		for _, class := range []Class{ClassCategory, ClassCourse, ClassModule, ClassLesson} {
			assert.NoError(t, Authorize(actor, OperationRead, class, owner))
			assert.NoError(t, Authorize(actor, OperationList, class, owner))
		}
	}
}

func TestAuthorizeWriteDecisionTable(t *testing.T) {
	owner := uuid.New()
	ownerActor := Actor{ID: owner, Role: types.RoleInstructor}
	otherInstructor := Actor{ID: uuid.New(), Role: types.RoleInstructor}
	student := Actor{ID: uuid.New(), Role: types.RoleStudent}
	admin := Actor{ID: uuid.New(), Role: types.RoleAdmin}

	writes := []Operation{OperationCreate, OperationUpdate, OperationDelete}

	for _, op := range writes {
		for _, class := range []Class{ClassCourse, ClassModule, ClassLesson} {
			assert.ErrorIs(t, Authorize(Anonymous(), op, class, owner), ErrAuthenticationRequired)
			assert.ErrorIs(t, Authorize(student, op, class, owner), ErrPermissionDenied)
			assert.NoError(t, Authorize(ownerActor, op, class, owner))
			assert.NoError(t, Authorize(admin, op, class, owner))
		}
	}

	// Non-owning instructors may create new courses but not touch others'.
	assert.NoError(t, Authorize(otherInstructor, OperationCreate, ClassCourse, uuid.Nil))
	assert.ErrorIs(t, Authorize(otherInstructor, OperationUpdate, ClassCourse, owner), ErrPermissionDenied)
	assert.ErrorIs(t, Authorize(otherInstructor, OperationDelete, ClassCourse, owner), ErrPermissionDenied)

	// Nested creates hinge on owning the resolved parent.
	assert.ErrorIs(t, Authorize(otherInstructor, OperationCreate, ClassModule, owner), ErrPermissionDenied)
	assert.ErrorIs(t, Authorize(otherInstructor, OperationCreate, ClassLesson, owner), ErrPermissionDenied)
	assert.NoError(t, Authorize(ownerActor, OperationCreate, ClassModule, owner))
	assert.NoError(t, Authorize(ownerActor, OperationCreate, ClassLesson, owner))
}

func TestAuthorizeCategoryWrites(t *testing.T) {
	student := Actor{ID: uuid.New(), Role: types.RoleStudent}
	instructor := Actor{ID: uuid.New(), Role: types.RoleInstructor}
	admin := Actor{ID: uuid.New(), Role: types.RoleAdmin}

	for _, op := range []Operation{OperationCreate, OperationUpdate, OperationDelete} {
		assert.ErrorIs(t, Authorize(Anonymous(), op, ClassCategory, uuid.Nil), ErrAuthenticationRequired)
		assert.ErrorIs(t, Authorize(student, op, ClassCategory, uuid.Nil), ErrPermissionDenied)
		assert.NoError(t, Authorize(instructor, op, ClassCategory, uuid.Nil))
		assert.NoError(t, Authorize(admin, op, ClassCategory, uuid.Nil))
	}
}

func TestCanSee(t *testing.T) {
	owner := uuid.New()
	ownerActor := Actor{ID: owner, Role: types.RoleInstructor}
	otherInstructor := Actor{ID: uuid.New(), Role: types.RoleInstructor}
	student := Actor{ID: uuid.New(), Role: types.RoleStudent}
	admin := Actor{ID: uuid.New(), Role: types.RoleAdmin}

	// Published is visible to everyone.
	for _, actor := range []Actor{Anonymous(), student, otherInstructor, ownerActor, admin} {
		assert.True(t, CanSee(actor, owner, true))
	}

	// Unpublished is visible only to the owner and admins.
	assert.True(t, CanSee(ownerActor, owner, false))
	assert.True(t, CanSee(admin, owner, false))
	assert.False(t, CanSee(otherInstructor, owner, false))
	assert.False(t, CanSee(student, owner, false))
	assert.False(t, CanSee(Anonymous(), owner, false))
}
