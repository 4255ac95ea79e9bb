package corpus

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"docqa/internal/knowledge"
)

const frontMatterDelimiter = "---"

// Metadata is the YAML front matter of a knowledge document.
type Metadata struct {
	Title       string   `yaml:"title"`
	AccessLevel string   `yaml:"access_level"`
	Departments []string `yaml:"departments"`
}

// Level returns the declared access level. Documents without one are public.
// Unrecognized values are kept so the access filter can refuse them.
func (m Metadata) Level() knowledge.AccessLevel {
	if strings.TrimSpace(m.AccessLevel) == "" {
		return knowledge.AccessPublic
	}
	return knowledge.ParseAccessLevel(m.AccessLevel)
}

// ParseDocument splits optional front matter from the markdown body.
// Content without a leading "---" line is returned unchanged with empty metadata.
func ParseDocument(content []byte) (Metadata, []byte, error) {
	var meta Metadata

	trimmed := bytes.TrimPrefix(content, []byte("\uFEFF"))
	firstLine, rest, found := bytes.Cut(trimmed, []byte("\n"))
	if !found || strings.TrimSpace(string(firstLine)) != frontMatterDelimiter {
		return meta, content, nil
	}

	var header []byte
	body := rest
	closed := false
	for len(body) > 0 {
		line, remaining, _ := bytes.Cut(body, []byte("\n"))
		body = remaining
		if strings.TrimSpace(string(line)) == frontMatterDelimiter {
			closed = true
			break
		}
		header = append(header, line...)
		header = append(header, '\n')
	}
	if !closed {
		return meta, content, fmt.Errorf("unterminated front matter")
	}

	if err := yaml.Unmarshal(header, &meta); err != nil {
		return meta, content, fmt.Errorf("invalid front matter: %w", err)
	}
	meta.Departments = knowledge.NormalizeDepartments(meta.Departments)
	return meta, body, nil
}
