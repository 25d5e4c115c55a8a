// Package mdparse reads markdown files and pulls out the little structure
// the summarizer cares about: YAML front matter and headings.
package mdparse

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	frontMatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)
	headerPattern      = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// Header is one ATX heading.
type Header struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Document is a parsed markdown file.
type Document struct {
	Metadata map[string]string `json:"metadata"`
	Headers  []Header          `json:"headers"`
	Content  string            `json:"content"`
	Length   int               `json:"length"`
}

// ReadFile returns the contents of a UTF-8 text file.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read %s: not valid UTF-8", path)
	}
	return string(data), nil
}

// Parse extracts metadata and headers and returns the whitespace-collapsed text.
func Parse(content string) Document {
	return Document{
		Metadata: ExtractMetadata(content),
		Headers:  ExtractHeaders(content),
		Content:  CleanText(content),
		Length:   utf8.RuneCountInString(content),
	}
}

// ExtractMetadata returns the top-level keys of a leading YAML front matter
// block. Values that are not scalars are rendered with fmt. Front matter that
// is not valid YAML falls back to plain "key: value" lines.
func ExtractMetadata(content string) map[string]string {
	meta := map[string]string{}
	m := frontMatterPattern.FindStringSubmatch(content)
	if m == nil {
		return meta
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(m[1]), &raw); err == nil {
		for k, v := range raw {
			if v == nil {
				meta[k] = ""
				continue
			}
			meta[k] = fmt.Sprint(v)
		}
		return meta
	}

	for _, line := range strings.Split(m[1], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta
}

// StripFrontMatter removes a leading front matter block.
func StripFrontMatter(content string) string {
	loc := frontMatterPattern.FindStringIndex(content)
	if loc == nil {
		return content
	}
	return content[loc[1]:]
}

// ExtractHeaders returns the ATX headings (# through ######) in document order.
func ExtractHeaders(content string) []Header {
	var headers []Header
	for _, line := range strings.Split(content, "\n") {
		m := headerPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		headers = append(headers, Header{Level: len(m[1]), Text: strings.TrimSpace(m[2])})
	}
	return headers
}

// CleanText collapses every run of whitespace into a single space and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}
