package fsstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eringen/pubcontent/content"
)

// System fields derived from a file's location.
const (
	FieldFile      = "_file"
	FieldDir       = "_dir"
	FieldExtension = "_extension"
)

var (
	reOrderPrefix = regexp.MustCompile(`^\d+\.`)
	frontDelim    = []byte("---")
)

// supported reports whether ext (with dot, lower case) is a content file.
func supported(ext string) bool {
	switch ext {
	case ".md", ".markdown", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// derivePath maps a slash-separated file path relative to the content root to
// a document path and its partial flag. The extension is dropped, numeric
// ordering prefixes such as "1." are stripped, an "index" file stands for its
// directory, and any segment starting with "_" marks a partial.
func derivePath(rel string) (docPath string, partial bool) {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	segments := strings.Split(rel, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "_") {
			partial = true
		}
		if stripped := reOrderPrefix.ReplaceAllString(seg, ""); stripped != "" {
			seg = stripped
		}
		out = append(out, seg)
	}
	if n := len(out); n > 0 && out[n-1] == "index" {
		out = out[:n-1]
	}
	return "/" + strings.Join(out, "/"), partial
}

// parseFile decodes a content file into its metadata fields. System fields are
// added by the caller.
func parseFile(ext string, data []byte) (map[string]any, error) {
	switch ext {
	case ".md", ".markdown":
		return parseMarkdown(data)
	case ".yaml", ".yml":
		fields := map[string]any{}
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return fields, nil
	case ".json":
		fields := map[string]any{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

// parseMarkdown splits YAML frontmatter from the body. A missing title falls
// back to the first level-one heading; a missing description to the first
// paragraph.
func parseMarkdown(data []byte) (map[string]any, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	fields := map[string]any{}
	body := data
	if front, rest, ok, err := splitFrontmatter(data); err != nil {
		return nil, err
	} else if ok {
		if err := yaml.Unmarshal(front, &fields); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
		body = rest
	}

	text := strings.TrimLeft(string(body), "\n")
	fields[content.FieldBody] = text
	if _, ok := fields[content.FieldTitle]; !ok {
		if h := firstHeading(text); h != "" {
			fields[content.FieldTitle] = h
		}
	}
	if _, ok := fields[content.FieldDescription]; !ok {
		if p := firstParagraph(text); p != "" {
			fields[content.FieldDescription] = p
		}
	}
	return fields, nil
}

func splitFrontmatter(data []byte) (front, rest []byte, ok bool, err error) {
	if !bytes.HasPrefix(data, frontDelim) {
		return nil, data, false, nil
	}
	firstNL := bytes.IndexByte(data, '\n')
	if firstNL < 0 || len(bytes.TrimSpace(data[:firstNL])) != len(frontDelim) {
		return nil, data, false, nil
	}
	remaining := data[firstNL+1:]
	offset := 0
	for offset <= len(remaining) {
		lineEnd := bytes.IndexByte(remaining[offset:], '\n')
		var line []byte
		if lineEnd < 0 {
			line = remaining[offset:]
		} else {
			line = remaining[offset : offset+lineEnd]
		}
		if bytes.Equal(bytes.TrimSpace(line), frontDelim) {
			front = remaining[:offset]
			if lineEnd < 0 {
				return front, nil, true, nil
			}
			return front, remaining[offset+lineEnd+1:], true, nil
		}
		if lineEnd < 0 {
			break
		}
		offset += lineEnd + 1
	}
	return nil, nil, false, errors.New("unterminated frontmatter")
}

func firstHeading(text string) string {
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if !inCode && strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func firstParagraph(text string) string {
	var para []string
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		if trimmed == "" {
			if len(para) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") ||
			strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, ">") || strings.HasPrefix(trimmed, "|") {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, trimmed)
	}
	return strings.Join(para, " ")
}
