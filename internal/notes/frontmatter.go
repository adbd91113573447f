package notes

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var frontmatterPattern = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---(?:\r?\n|\z)(.*)\z`)

// ParseFrontmatter splits a note into its YAML frontmatter (as a map, empty
// if the note has no frontmatter block) and its body.
func ParseFrontmatter(text string) (map[string]any, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(text)
	if matches == nil {
		return map[string]any{}, text, nil
	}
	fm := map[string]any{}
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, "", fmt.Errorf("parsing frontmatter: %w", err)
	}
	return fm, matches[2], nil
}

// RenderFrontmatter serializes a frontmatter map back onto a body. An empty
// map renders as the bare body.
func RenderFrontmatter(fm map[string]any, body string) (string, error) {
	if len(fm) == 0 {
		return body, nil
	}
	encoded, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	return "---\n" + string(encoded) + "---\n" + body, nil
}

// Tags reads the frontmatter "tags" property, which notes store either as a
// single string or as a list.
func Tags(fm map[string]any) []string {
	switch v := fm["tags"].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

// HasTag reports whether the frontmatter carries the given tag.
func HasTag(fm map[string]any, tag string) bool {
	for _, t := range Tags(fm) {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// WithTag returns the tag list extended with tag, preserving existing tags.
func WithTag(fm map[string]any, tag string) []string {
	existing := Tags(fm)
	if HasTag(fm, tag) {
		return existing
	}
	return append(existing, tag)
}
