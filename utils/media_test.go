package utils

import (
	"testing"

	"docpipe_backend/models"
)

func TestMediaTypeFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"report.pdf", models.MediaTypePDF, false},
		{"REPORT.PDF", models.MediaTypePDF, false},
		{"scan.png", models.MediaTypeImage, false},
		{"photo.JPG", models.MediaTypeImage, false},
		{"photo.jpeg", models.MediaTypeImage, false},
		{"pic.webp", models.MediaTypeImage, false},
		{"archive.zip", "", true},
		{"noextension", "", true},
	}
	for _, tc := range cases {
		got, err := MediaTypeFromFilename(tc.filename)
		if tc.wantErr {
			if err == nil {
				t.Errorf("MediaTypeFromFilename(%q): expected error", tc.filename)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("MediaTypeFromFilename(%q) = %q, %v; want %q", tc.filename, got, err, tc.want)
		}
	}
}

func TestAllowedContentType(t *testing.T) {
	for _, ct := range []string{"application/pdf", "image/png", "image/jpeg", "image/webp"} {
		if !AllowedContentType(ct) {
			t.Errorf("AllowedContentType(%q) = false", ct)
		}
	}
	for _, ct := range []string{"text/html", "image/gif", "application/octet-stream", ""} {
		if AllowedContentType(ct) {
			t.Errorf("AllowedContentType(%q) = true", ct)
		}
	}
}
