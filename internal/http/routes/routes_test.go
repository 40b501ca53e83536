package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/academyhq/academy-server-go/pkg/cache"
	"github.com/academyhq/academy-server-go/pkg/config"
	"github.com/academyhq/academy-server-go/pkg/database"
	"github.com/academyhq/academy-server-go/pkg/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cacheClient, err := cache.NewRedisClient("", "", 0)
	require.NoError(t, err)

	store, err := storage.NewLocal(t.TempDir(), "/media")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:              "test",
		JWTSecret:        "test-secret",
		JWTRefreshSecret: "test-refresh-secret",
		Storage:          config.StorageConfig{BaseURL: "/media"},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := gin.New()
	Register(engine, cfg, db, log, cacheClient, store)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// registerUser signs an account up and returns its access token and user ID.
func registerUser(t *testing.T, engine *gin.Engine, email, role string) (string, string) {
	t.Helper()

	w := doJSON(t, engine, http.MethodPost, "/api/auth/register", "", gin.H{
		"fullName":  "Test Person",
		"email":     email,
		"password":  "secret123",
		"password2": "secret123",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.AccessToken, data.User.ID
}

func createCategory(t *testing.T, engine *gin.Engine, token, name string) string {
	t.Helper()

	w := doJSON(t, engine, http.MethodPost, "/api/categories", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		ID string `json:"id"`
	}
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func createCourse(t *testing.T, engine *gin.Engine, token, categoryID, title string, published bool) string {
	t.Helper()

	w := doJSON(t, engine, http.MethodPost, "/api/courses", token, gin.H{
		"title":       title,
		"description": "about " + title,
		"categoryId":  categoryID,
		"level":       "BEGINNER",
		"isPublished": published,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		ID string `json:"id"`
	}
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func TestCourseCreateIgnoresClientInstructor(t *testing.T) {
	engine := newTestServer(t)

	token, userID := registerUser(t, engine, "instructor@example.com", "INSTRUCTOR")
	categoryID := createCategory(t, engine, token, "Backend")

	// A forged instructorId in the payload must not take effect.
	w := doJSON(t, engine, http.MethodPost, "/api/courses", token, gin.H{
		"title":        "Go Services",
		"description":  "building services in Go",
		"categoryId":   categoryID,
		"level":        "BEGINNER",
		"instructorId": "11111111-1111-1111-1111-111111111111",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		InstructorID string `json:"instructorId"`
	}
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, userID, data.InstructorID)
}

func TestUnpublishedCourseVisibility(t *testing.T) {
	engine := newTestServer(t)

	token, _ := registerUser(t, engine, "owner@example.com", "INSTRUCTOR")
	categoryID := createCategory(t, engine, token, "Frontend")
	courseID := createCourse(t, engine, token, categoryID, "Hidden Draft", false)

	// Anonymous readers cannot tell an unpublished course from a missing one.
	w := doJSON(t, engine, http.MethodGet, "/api/courses/"+courseID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Other authenticated users get the same answer.
	otherToken, _ := registerUser(t, engine, "student@example.com", "STUDENT")
	w = doJSON(t, engine, http.MethodGet, "/api/courses/"+courseID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The owner sees their own draft.
	w = doJSON(t, engine, http.MethodGet, "/api/courses/"+courseID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCourseUpdateRejectsMalformedSlug(t *testing.T) {
	engine := newTestServer(t)

	token, _ := registerUser(t, engine, "owner@example.com", "INSTRUCTOR")
	categoryID := createCategory(t, engine, token, "Writing")
	courseID := createCourse(t, engine, token, categoryID, "Technical Writing", true)

	w := doJSON(t, engine, http.MethodPatch, "/api/courses/"+courseID, token, gin.H{
		"slug": "Bad Slug!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodPatch, "/api/courses/"+courseID, token, gin.H{
		"slug": "better-slug",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestInstructorCourseListIsOwnCatalog(t *testing.T) {
	engine := newTestServer(t)

	ownerToken, _ := registerUser(t, engine, "author@example.com", "INSTRUCTOR")
	categoryID := createCategory(t, engine, ownerToken, "Security")
	createCourse(t, engine, ownerToken, categoryID, "Threat Modeling", true)

	// An instructor who owns nothing gets an empty catalog, not the
	// published courses of other instructors.
	emptyToken, _ := registerUser(t, engine, "newhire@example.com", "INSTRUCTOR")
	w := doJSON(t, engine, http.MethodGet, "/api/courses", emptyToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var courses []json.RawMessage
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	assert.Empty(t, courses)

	// Students still see the published catalog.
	studentToken, _ := registerUser(t, engine, "reader@example.com", "STUDENT")
	w = doJSON(t, engine, http.MethodGet, "/api/courses", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env = decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	assert.Len(t, courses, 1)
}

func TestModuleCreateRequiresCourseOwnership(t *testing.T) {
	engine := newTestServer(t)

	ownerToken, _ := registerUser(t, engine, "owner@example.com", "INSTRUCTOR")
	otherToken, _ := registerUser(t, engine, "intruder@example.com", "INSTRUCTOR")
	studentToken, _ := registerUser(t, engine, "viewer@example.com", "STUDENT")
	categoryID := createCategory(t, engine, ownerToken, "DevOps")
	courseID := createCourse(t, engine, ownerToken, categoryID, "Kubernetes Basics", true)

	payload := gin.H{"courseId": courseID, "title": "Intro", "order": 1}

	// Another instructor cannot attach modules to a course they do not own.
	w := doJSON(t, engine, http.MethodPost, "/api/modules", otherToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// Students cannot either.
	w = doJSON(t, engine, http.MethodPost, "/api/modules", studentToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A missing parent reads as not found, not forbidden.
	w = doJSON(t, engine, http.MethodPost, "/api/modules", otherToken, gin.H{
		"courseId": "22222222-2222-2222-2222-222222222222",
		"title":    "Orphan",
		"order":    1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/modules", ownerToken, payload)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestVideoLessonURLValidation(t *testing.T) {
	engine := newTestServer(t)

	token, _ := registerUser(t, engine, "teacher@example.com", "INSTRUCTOR")
	categoryID := createCategory(t, engine, token, "Video Production")
	courseID := createCourse(t, engine, token, categoryID, "Editing 101", true)

	w := doJSON(t, engine, http.MethodPost, "/api/modules", token, gin.H{
		"courseId": courseID,
		"title":    "Getting Started",
		"order":    1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var module struct {
		ID string `json:"id"`
	}
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &module))

	w = doJSON(t, engine, http.MethodPost, "/api/lessons", token, gin.H{
		"moduleId":   module.ID,
		"title":      "Hosted Elsewhere",
		"lessonType": "VIDEO",
		"order":      1,
		"videoUrl":   "https://vimeo.com/987654",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodPost, "/api/lessons", token, gin.H{
		"moduleId":   module.ID,
		"title":      "Proper Upload",
		"lessonType": "VIDEO",
		"order":      1,
		"videoUrl":   "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestEnrollmentFlow(t *testing.T) {
	engine := newTestServer(t)

	instructorToken, _ := registerUser(t, engine, "prof@example.com", "INSTRUCTOR")
	studentToken, _ := registerUser(t, engine, "learner@example.com", "STUDENT")
	categoryID := createCategory(t, engine, instructorToken, "Databases")
	publishedID := createCourse(t, engine, instructorToken, categoryID, "SQL Deep Dive", true)
	draftID := createCourse(t, engine, instructorToken, categoryID, "Draft Course", false)

	// Instructors do not enroll.
	w := doJSON(t, engine, http.MethodPost, "/api/courses/"+publishedID+"/enroll", instructorToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// Unpublished courses are invisible to students.
	w = doJSON(t, engine, http.MethodPost, "/api/courses/"+draftID+"/enroll", studentToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/courses/"+publishedID+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var enrollment struct {
		ID string `json:"id"`
	}
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &enrollment))

	w = doJSON(t, engine, http.MethodPost, "/api/courses/"+publishedID+"/enroll", studentToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, engine, http.MethodPatch, "/api/enrollments/"+enrollment.ID+"/progress", studentToken, gin.H{
		"progressPercentage": 100,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated struct {
		Completed   bool    `json:"completed"`
		CompletedAt *string `json:"completedAt"`
	}
	env = decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.True(t, updated.Completed)
	assert.NotNil(t, updated.CompletedAt)

	// Course enrollment listings are for the owner, not students.
	w = doJSON(t, engine, http.MethodGet, "/api/courses/"+publishedID+"/enrollments", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, engine, http.MethodGet, "/api/courses/"+publishedID+"/enrollments", instructorToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCategoryWritesRequireInstructor(t *testing.T) {
	engine := newTestServer(t)

	studentToken, _ := registerUser(t, engine, "student@example.com", "STUDENT")

	w := doJSON(t, engine, http.MethodPost, "/api/categories", studentToken, gin.H{"name": "Forbidden"})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodPost, "/api/categories", "", gin.H{"name": "Anonymous"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
