package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docqa/internal/knowledge"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
}

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.md", "# Readme")
	writeFile(t, root, "policies/underwriting.md", "# Underwriting")
	writeFile(t, root, "policies/notes.txt", "ignored")
	writeFile(t, root, ".git/HEAD.md", "ignored")

	files, err := NewScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Scan() = %d files, want 2: %+v", len(files), files)
	}

	byPath := make(map[string]ScannedFile)
	for _, f := range files {
		byPath[f.RelPath] = f
	}
	if f, ok := byPath["readme.md"]; !ok || f.Folder != "" {
		t.Errorf("readme.md = %+v", f)
	}
	if f, ok := byPath["policies/underwriting.md"]; !ok || f.Folder != "policies" {
		t.Errorf("policies/underwriting.md = %+v", f)
	}
}

func TestScanner_ScanMissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "missing")).Scan(context.Background())
	if err == nil {
		t.Error("Scan() on missing root expected error")
	}
}

func TestScanner_ScanCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScanner(root).Scan(ctx); err == nil {
		t.Error("Scan() with canceled context expected error")
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantLevel knowledge.AccessLevel
		wantDepts []string
		wantTitle string
		wantBody  string
		wantErr   bool
	}{
		{
			name:      "no front matter",
			content:   "# Title\nBody",
			wantLevel: knowledge.AccessPublic,
			wantBody:  "# Title\nBody",
		},
		{
			name:      "full front matter",
			content:   "---\ntitle: Guidelines\naccess_level: Departmental\ndepartments: [Underwriting, claims, underwriting]\n---\n# Guidelines\n",
			wantLevel: knowledge.AccessDepartmental,
			wantDepts: []string{"underwriting", "claims"},
			wantTitle: "Guidelines",
			wantBody:  "# Guidelines\n",
		},
		{
			name:      "unknown level kept",
			content:   "---\naccess_level: secret\n---\nbody",
			wantLevel: knowledge.AccessLevel("secret"),
			wantBody:  "body",
		},
		{
			name:    "unterminated",
			content: "---\ntitle: x\n# body",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			content: "---\ndepartments: [a\n---\nbody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body, err := ParseDocument([]byte(tt.content))
			if tt.wantErr {
				if err == nil {
					t.Error("ParseDocument() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}
			if meta.Level() != tt.wantLevel {
				t.Errorf("Level() = %q, want %q", meta.Level(), tt.wantLevel)
			}
			if strings.Join(meta.Departments, ",") != strings.Join(tt.wantDepts, ",") {
				t.Errorf("Departments = %v, want %v", meta.Departments, tt.wantDepts)
			}
			if meta.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", meta.Title, tt.wantTitle)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}
