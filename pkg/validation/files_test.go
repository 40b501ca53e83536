package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckVideoURL(t *testing.T) {
	assert.NoError(t, CheckVideoURL("https://youtube.com/watch?v=abc"))
	assert.NoError(t, CheckVideoURL("https://www.youtube.com/watch?v=abc"))
	assert.NoError(t, CheckVideoURL("https://youtu.be/abc"))

	assert.ErrorIs(t, CheckVideoURL("https://vimeo.com/x"), ErrInvalidVideoURL)
	assert.ErrorIs(t, CheckVideoURL("ftp://youtube.com/x"), ErrInvalidVideoURL)
	assert.ErrorIs(t, CheckVideoURL("not a url at all\x7f"), ErrInvalidVideoURL)
}

func TestCheckDocumentUpload(t *testing.T) {
	assert.NoError(t, CheckDocumentUpload("notes.pdf", 1024))
	assert.NoError(t, CheckDocumentUpload("Syllabus.DOCX", 1024))
	assert.NoError(t, CheckDocumentUpload("readme.txt", MaxUploadBytes))

	assert.ErrorIs(t, CheckDocumentUpload("notes.pdf", MaxUploadBytes+1), ErrFileTooLarge)
	assert.ErrorIs(t, CheckDocumentUpload("video.mp4", 1024), ErrInvalidFileType)
	assert.ErrorIs(t, CheckDocumentUpload("noextension", 1024), ErrInvalidFileType)
}

func TestCheckImageUpload(t *testing.T) {
	assert.NoError(t, CheckImageUpload("avatar.png", 1024))
	assert.NoError(t, CheckImageUpload("photo.JPEG", 1024))

	assert.ErrorIs(t, CheckImageUpload("avatar.gif", 1024), ErrInvalidFileType)
	assert.ErrorIs(t, CheckImageUpload("avatar.png", MaxUploadBytes+1), ErrFileTooLarge)
}

func TestSlugifyBasic(t *testing.T) {
	assert.Equal(t, "intro-to-go", Slugify("Intro to Go"))
	assert.Equal(t, "c-for-beginners", Slugify("  C++ for Beginners!  "))
	assert.Equal(t, "web-dev-101", Slugify("Web Dev 101"))
	assert.Equal(t, "", Slugify("???"))
}

func TestValidSlugBasic(t *testing.T) {
	assert.True(t, ValidSlug("intro-to-go"))
	assert.True(t, ValidSlug("go101"))
	assert.False(t, ValidSlug("Intro-To-Go"))
	assert.False(t, ValidSlug("-leading"))
	assert.False(t, ValidSlug("double--hyphen"))
	assert.False(t, ValidSlug(""))
}
