package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"emphasis", "Use **bold** headings", "<p>Use <strong>bold</strong> headings</p>\n"},
		{"linkify", "see https://refto.example", `<a href="https://refto.example">https://refto.example</a>`},
		{"strikethrough", "~~old~~", "<del>old</del>"},
		{"hard wrap", "one\ntwo", "one<br>\ntwo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.in)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("ToHTML(%q) = %q, want it to contain %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToHTMLEscapesRawHTML(t *testing.T) {
	got, err := ToHTML("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML passed through: %q", got)
	}
}
