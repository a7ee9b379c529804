package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"docpipe_backend/models"
)

// MediaTypeFromFilename maps an uploaded file's extension to the
// document media type the pipeline understands.
func MediaTypeFromFilename(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.MediaTypePDF, nil
	case ".png", ".jpg", ".jpeg", ".webp":
		return models.MediaTypeImage, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

// AllowedContentType reports whether the declared upload content type
// is one the pipeline accepts.
func AllowedContentType(contentType string) bool {
	switch contentType {
	case "application/pdf", "image/png", "image/jpeg", "image/webp":
		return true
	}
	return false
}
