// Package authz is the single authorization checkpoint for catalog
// resources. Every write against a Category, Course, CourseModule or Lesson
// funnels through Authorize; handlers never re-implement role checks.
package authz

import (
	"errors"

	"github.com/google/uuid"

	"github.com/academyhq/academy-server-go/pkg/types"
)

var (
	// ErrPermissionDenied means the actor is known and the resource exists,
	// but the actor lacks rights for the operation. Distinct from a not
	// found error by design: readers learn the resource exists.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAuthenticationRequired means the operation needs a signed-in actor.
	ErrAuthenticationRequired = errors.New("authentication required")
)

// Operation enumerates the intents evaluated by the gate.
type Operation uint8

const (
	OperationRead Operation = iota
	OperationList
	OperationCreate
	OperationUpdate
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationRead:
		return "read"
	case OperationList:
		return "list"
	case OperationCreate:
		return "create"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	}
	return "unknown"
}

// Class identifies the resource kind an operation targets.
type Class string

const (
	ClassCategory Class = "category"
	ClassCourse   Class = "course"
	ClassModule   Class = "module"
	ClassLesson   Class = "lesson"
)

// Actor is the identity context of a request. The zero value is the
// anonymous actor.
type Actor struct {
	ID   uuid.UUID
	Role types.Role
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor { return Actor{} }

// IsAnonymous reports whether the actor carries no identity.
func (a Actor) IsAnonymous() bool { return a.ID == uuid.Nil }

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return !a.IsAnonymous() && a.Role == types.RoleAdmin }

// IsInstructor reports whether the actor holds the instructor role.
func (a Actor) IsInstructor() bool { return !a.IsAnonymous() && a.Role == types.RoleInstructor }

// Authorize decides whether actor may perform op on a resource of the given
// class. ownerID is the instructor owning the resource (or, for CREATE on a
// nested class, the owner of the resolved parent); pass uuid.Nil for
// ownerless classes such as Category.
//
// Callers must resolve the parent before asking for a CREATE decision:
// ownership cannot be evaluated against a parent that does not exist, and a
// missing parent must surface as not found, never as a permission error.
func Authorize(actor Actor, op Operation, class Class, ownerID uuid.UUID) error {
	switch op {
	case OperationRead, OperationList:
		// Reads are open; visibility of unpublished resources is the
		// caller's concern.
		return nil
	}

	if actor.IsAnonymous() {
		return ErrAuthenticationRequired
	}

	if actor.IsAdmin() {
		return nil
	}

	if !actor.IsInstructor() {
		return ErrPermissionDenied
	}

	switch class {
	case ClassCategory:
		// No owner concept; any instructor may manage categories.
		return nil
	case ClassCourse:
		if op == OperationCreate {
			return nil
		}
	}

	if actor.ID == ownerID {
		return nil
	}

	return ErrPermissionDenied
}

// CanSee reports whether the actor may observe a resource whose owning
// course has the given owner and published state. Unpublished resources are
// visible only to the owner and admins; everyone else is told they do not
// exist.
func CanSee(actor Actor, ownerID uuid.UUID, published bool) bool {
	if published {
		return true
	}
	return actor.IsAdmin() || (actor.IsInstructor() && actor.ID == ownerID)
}
