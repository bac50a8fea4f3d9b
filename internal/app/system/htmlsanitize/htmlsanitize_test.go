package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/mansiuk/internal/app/system/htmlsanitize"
	"github.com/google/go-cmp/cmp"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text unchanged", "Weekly grocery run", "Weekly grocery run"},
		{"chinese text unchanged", "需要陪診", "需要陪診"},
		{"punctuation survives", "Tom's tea & cake", "Tom's tea & cake"},
		{"tags stripped", "<p><strong>Bold</strong> move</p>", "Bold move"},
		{"script removed with content", "Hello<script>alert('xss')</script>", "Hello"},
		{"style removed with content", "<style>body{}</style>Text", "Text"},
		{"trimmed", "  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanAll_DropsEmpty(t *testing.T) {
	got := htmlsanitize.CleanAll([]string{"cooking", "<b></b>", " driving "})
	if diff := cmp.Diff([]string{"cooking", "driving"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if htmlsanitize.CleanAll(nil) != nil {
		t.Error("nil in should give nil out")
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("") {
		t.Error("expected empty string to be plain text")
	}
	if !htmlsanitize.IsPlainText("Hello, World!") {
		t.Error("expected string without tags to be plain text")
	}
	if htmlsanitize.IsPlainText("<p>Hello</p>") {
		t.Error("expected string with tags to NOT be plain text")
	}
}
