// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/rootcause/pkg/types"
)

func TestMatcher_Edit(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		original    string
		replacement string
		want        string
		wantStage   types.MatchStage
		wantErr     bool
	}{
		{
			name:        "exact match replaces first occurrence",
			content:     "timeout: 30\nretries: 3\n",
			original:    "retries: 3\n",
			replacement: "retries: 5\n",
			want:        "timeout: 30\nretries: 5\n",
			wantStage:   types.StageExact,
		},
		{
			name:        "exact match replaces only first of multiple",
			content:     "a: 1\nb: 2\na: 1\n",
			original:    "a: 1\n",
			replacement: "a: 99\n",
			want:        "a: 99\nb: 2\na: 1\n",
			wantStage:   types.StageExact,
		},
		{
			name:        "exact match inside a line replaces the whole line",
			content:     "keep; target()\nnext\n",
			original:    "target()",
			replacement: "replaced()",
			want:        "replaced()\nnext\n",
			wantStage:   types.StageExact,
		},
		{
			name:        "exact match without indentation takes the replacement indentation",
			content:     "def f():\n    x = 1\n    return x\n",
			original:    "x = 1",
			replacement: "    x = 2",
			want:        "def f():\n    x = 2\n    return x\n",
			wantStage:   types.StageExact,
		},
		{
			name:        "exact match with empty replacement removes the lines",
			content:     "a = 1\nb = 2\nc = 3\n",
			original:    "b = 2\n",
			replacement: "",
			want:        "a = 1\nc = 3\n",
			wantStage:   types.StageExact,
		},
		{
			name:        "exact match on last line without trailing newline",
			content:     "a = 1\nb = 2",
			original:    "b = 2",
			replacement: "b = 3\n",
			want:        "a = 1\nb = 3",
			wantStage:   types.StageExact,
		},
		{
			name:        "fuzzy match replaces whole lines",
			content:     "def f():\n    return 1\n\nprint(f())\n",
			original:    "def f():  \n    return 1   \n",
			replacement: "def f():\n    return 2\n",
			want:        "def f():\n    return 2\n\nprint(f())\n",
			wantStage:   types.StageFuzzy,
		},
		{
			name:        "fuzzy match with empty replacement removes lines",
			content:     "a = 1\nb = 2 \nc = 3\n",
			original:    "b  = 2",
			replacement: "",
			want:        "a = 1\nc = 3\n",
			wantStage:   types.StageFuzzy,
		},
		{
			name:        "no match returns diagnostic",
			content:     "completely different content\n",
			original:    "this text does not exist anywhere in the file at all\n",
			replacement: "replacement\n",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, m, err := NewMatcher(0.8).Edit("f.py", tt.content, tt.original, tt.replacement)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrMatchNotFound)
				var diag *types.MatchDiagnostic
				require.ErrorAs(t, err, &diag)
				assert.Equal(t, "f.py", diag.FilePath)
				assert.Equal(t, 0.8, diag.Threshold)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStage, m.Stage)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_FindExactSpan(t *testing.T) {
	content := "import os\n\ndef f():\n    return os.getcwd()\n"

	m := (&Matcher{}).Find(content, "def f():\n    return os.getcwd()\n")
	require.NotNil(t, m)
	assert.Equal(t, 2, m.StartLine)
	assert.Equal(t, 4, m.EndLine)
	assert.Equal(t, 1.0, m.Similarity)
	assert.Equal(t, types.StageExact, m.Stage)
}

func TestMatcher_FindWhitespaceDriftKeepsExactSpan(t *testing.T) {
	content := "class A:\n    def f(self):\n        return 1\n"

	m := (&Matcher{}).Find(content, "def f(self):\n    return 1")
	require.NotNil(t, m)
	assert.Equal(t, types.StageFuzzy, m.Stage)
	assert.Equal(t, 1, m.StartLine)
	assert.Equal(t, 3, m.EndLine)
	assert.GreaterOrEqual(t, m.Similarity, 0.8)
}

func TestMatcher_FindTieGoesToEarliestWindow(t *testing.T) {
	m := (&Matcher{}).Find("foo(a)\nbar\nfoo(a)\n", "foo(a) ")
	require.NotNil(t, m)
	assert.Equal(t, 0, m.StartLine)
}

func TestMatcher_FindNoMatch(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  string
	}{
		{"empty target", "x = 1\n", ""},
		{"whitespace target", "x = 1\n", "  \n\t"},
		{"target longer than file", "x = 1", "a\nb\nc\nd"},
		{"below threshold", "alpha beta gamma\n", "zzz yyy xxx www"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, NewMatcher(0.8).Find(tt.content, tt.target))
		})
	}
}

func TestMatcher_Diagnose(t *testing.T) {
	content := "line one\nreturn x + 1\nline three\n"
	d := NewMatcher(0.95).Diagnose("a.py", content, "return x + 2")

	assert.Equal(t, "return x + 1", d.ClosestMatch)
	assert.Equal(t, 2, d.ClosestLineStart)
	assert.Equal(t, 2, d.ClosestLineEnd)
	assert.Less(t, d.Similarity, 0.95)
	assert.Contains(t, d.Error(), "closest match at lines 2-2")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "if x:\n    y()", normalize("\n\n    if x:   \n        y()\n\n"))
	assert.Equal(t, "a\n\tb", normalize("\ta\n\t\tb"))
	assert.Equal(t, "", normalize(" \n\t\n"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.Equal(t, 0.0, similarity("", "abc"))
	assert.InDelta(t, 0.75, similarity("abcd", "abce"), 1e-9)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.py")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, WriteFileAtomic(path, []byte("new")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "f.txt"), []byte("x"))
	assert.Error(t, err)
}
