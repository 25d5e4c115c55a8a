package mdparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `---
title: Quarterly report
tags: [finance, q3]
draft: false
---
# Overview

Revenue grew.

## Details
### 세부 사항
####### not a header
#missing space
`

func TestExtractMetadata(t *testing.T) {
	meta := ExtractMetadata(sample)
	assert.Equal(t, "Quarterly report", meta["title"])
	assert.Equal(t, "[finance q3]", meta["tags"])
	assert.Equal(t, "false", meta["draft"])
}

func TestExtractMetadata_NoFrontMatter(t *testing.T) {
	assert.Empty(t, ExtractMetadata("# Title\n---\nkey: value\n---\n"))
}

func TestExtractMetadata_InvalidYAMLFallsBack(t *testing.T) {
	meta := ExtractMetadata("---\ntitle: a: b\n  bad: [\nauthor: Kim\n---\nbody")
	assert.Equal(t, "a: b", meta["title"])
	assert.Equal(t, "Kim", meta["author"])
}

func TestStripFrontMatter(t *testing.T) {
	assert.Equal(t, "# Overview", firstLine(StripFrontMatter(sample)))
	assert.Equal(t, "no front matter", StripFrontMatter("no front matter"))
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func TestExtractHeaders(t *testing.T) {
	assert.Equal(t, []Header{
		{Level: 1, Text: "Overview"},
		{Level: 2, Text: "Details"},
		{Level: 3, Text: "세부 사항"},
	}, ExtractHeaders(sample))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a\n\n\n b\t\tc \n"))
	assert.Equal(t, "", CleanText(" \n "))
}

func TestParse(t *testing.T) {
	doc := Parse("# 제목\n\n본문")
	assert.Equal(t, "# 제목 본문", doc.Content)
	assert.Equal(t, 8, doc.Length)
	assert.Len(t, doc.Headers, 1)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(good, []byte("# hi"), 0o644))

	got, err := ReadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "# hi", got)

	_, err = ReadFile(filepath.Join(dir, "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe}, 0o644))
	_, err = ReadFile(bad)
	assert.Error(t, err)
}
