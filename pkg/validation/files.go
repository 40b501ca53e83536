package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the size ceiling for any uploaded file.
const MaxUploadBytes = 5 * 1024 * 1024

var (
	ErrFileTooLarge    = errors.New("file size must be less than 5MB")
	ErrInvalidFileType = errors.New("file type is not allowed")
	ErrInvalidVideoURL = errors.New("video URL host is not allowed")
)

// imageExtensions are the accepted profile and cover image types.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// documentExtensions are the accepted lesson document types.
var documentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// videoHosts are the hosting providers accepted for VIDEO lessons.
var videoHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
}

// CheckImageUpload validates an image file name and size.
func CheckImageUpload(filename string, size int64) error {
	return checkUpload(filename, size, imageExtensions)
}

// CheckDocumentUpload validates a lesson document file name and size.
func CheckDocumentUpload(filename string, size int64) error {
	return checkUpload(filename, size, documentExtensions)
}

// CheckDocumentName validates only the extension of a stored document path.
func CheckDocumentName(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !documentExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrInvalidFileType, ext)
	}
	return nil
}

// CheckVideoURL validates that a lesson video URL points at an allowed
// hosting provider.
func CheckVideoURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVideoURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidVideoURL, parsed.Scheme)
	}
	if !videoHosts[strings.ToLower(parsed.Hostname())] {
		return fmt.Errorf("%w: %q", ErrInvalidVideoURL, parsed.Hostname())
	}
	return nil
}

func checkUpload(filename string, size int64, allowed map[string]bool) error {
	if size > MaxUploadBytes {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed[ext] {
		return fmt.Errorf("%w: %q", ErrInvalidFileType, ext)
	}
	return nil
}
