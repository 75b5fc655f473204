// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package validator

import (
	"context"
	"errors"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/rootcause/pkg/types"
)

func newTestValidator(t *testing.T, cfg Config) *Validator {
	t.Helper()
	v, err := New(cfg, nil)
	require.NoError(t, err)
	return v
}

func TestValidate_TreeSitter(t *testing.T) {
	tests := []struct {
		name    string
		lang    types.Language
		content string
		valid   bool
	}{
		{"python valid", types.LangPython, "def f():\n    return 1\n", true},
		{"python invalid", types.LangPython, "def f(:\n    return 1\n", false},
		{"javascript valid", types.LangJavaScript, "const x = [1, 2].map((n) => n * 2);\n", true},
		{"javascript invalid", types.LangJavaScript, "function f( {\n  return 1;\n}\n", false},
		{"jsx valid", types.LangJSX, "const el = <div className=\"a\">hi</div>;\n", true},
		{"typescript valid", types.LangTypeScript, "let n: number = 1;\nexport function id<T>(x: T): T { return x; }\n", true},
		{"typescript invalid", types.LangTypeScript, "let n: number = ;\n", false},
		{"tsx valid", types.LangTSX, "const App = (): JSX.Element => <main>ok</main>;\n", true},
	}
	v := newTestValidator(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := v.Validate(context.Background(), []byte(tt.content), tt.lang)
			assert.Equal(t, tt.valid, r.Valid, "message: %s", r.Message)
			assert.Equal(t, "tree-sitter", r.Checker)
			if !tt.valid {
				assert.Positive(t, r.Line)
				assert.NotEmpty(t, r.Message)
				assert.ErrorIs(t, r.Err(tt.lang), types.ErrValidation)
			}
		})
	}
}

func TestValidate_PythonErrorLocation(t *testing.T) {
	v := newTestValidator(t, Config{})
	r := v.Validate(context.Background(), []byte("x = 1\ny = (\n"), types.LangPython)
	require.False(t, r.Valid)
	assert.GreaterOrEqual(t, r.Line, 2)

	var ve *types.ValidationError
	require.ErrorAs(t, r.Err(types.LangPython), &ve)
	assert.Equal(t, r.Line, ve.Line)
}

func TestValidate_UnknownLanguageAlwaysValid(t *testing.T) {
	v := newTestValidator(t, Config{ExternalTools: true})
	r := v.Validate(context.Background(), []byte("{{{ not code"), types.LangUnknown)
	assert.True(t, r.Valid)
	assert.NoError(t, r.Err(types.LangUnknown))
}

func TestValidate_MissingTool(t *testing.T) {
	notFound := func(string) (string, error) { return "", exec.ErrNotFound }

	v := newTestValidator(t, Config{ExternalTools: true})
	v.lookPath = notFound
	r := v.Validate(context.Background(), []byte("const x = 1;\n"), types.LangJavaScript)
	assert.True(t, r.Valid)
	assert.True(t, r.Unverified)
	assert.Contains(t, r.Message, "node not available")

	v = newTestValidator(t, Config{ExternalTools: true, FailClosed: true})
	v.lookPath = notFound
	r = v.Validate(context.Background(), []byte("const x = 1;\n"), types.LangTypeScript)
	assert.False(t, r.Valid)
	assert.Equal(t, "tsc", r.Checker)
}

func TestValidate_ExternalNodeFailure(t *testing.T) {
	v := newTestValidator(t, Config{ExternalTools: true})
	v.lookPath = func(string) (string, error) { return "/usr/bin/node", nil }
	v.run = func(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) (string, error) {
		assert.Equal(t, "node", name)
		assert.Equal(t, []string{"--check", "-"}, args)
		return "[stdin]:3\nawait x\n^^^^^\n\nSyntaxError: await is only valid in async functions\n", &exec.ExitError{}
	}

	r := v.Validate(context.Background(), []byte("const x = 1;\n"), types.LangJavaScript)
	assert.False(t, r.Valid)
	assert.Equal(t, "node", r.Checker)
	assert.Equal(t, 3, r.Line)
	assert.Equal(t, "SyntaxError: await is only valid in async functions", r.Message)
}

func TestValidate_ExternalTimeoutIsInvalidAndNotCached(t *testing.T) {
	var calls atomic.Int32
	v := newTestValidator(t, Config{ExternalTools: true, CacheSize: 8})
	v.lookPath = func(string) (string, error) { return "/usr/bin/node", nil }
	v.run = func(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) (string, error) {
		calls.Add(1)
		return "", context.DeadlineExceeded
	}

	content := []byte("const x = 1;\n")
	r := v.Validate(context.Background(), content, types.LangJavaScript)
	assert.False(t, r.Valid)
	assert.Equal(t, "validation timeout", r.Message)

	v.Validate(context.Background(), content, types.LangJavaScript)
	assert.Equal(t, int32(2), calls.Load())
}

func TestValidate_CachesResults(t *testing.T) {
	var calls atomic.Int32
	v := newTestValidator(t, Config{ExternalTools: true, CacheSize: 8})
	v.lookPath = func(string) (string, error) { return "/usr/bin/node", nil }
	v.run = func(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) (string, error) {
		calls.Add(1)
		return "", nil
	}

	content := []byte("const x = 1;\n")
	for i := 0; i < 3; i++ {
		r := v.Validate(context.Background(), content, types.LangJavaScript)
		assert.True(t, r.Valid)
		assert.Equal(t, "node", r.Checker)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestValidate_ExternalSkippedWhenParseFails(t *testing.T) {
	v := newTestValidator(t, Config{ExternalTools: true})
	v.lookPath = func(string) (string, error) { return "", errors.New("should not be called") }

	r := v.Validate(context.Background(), []byte("function ( {"), types.LangJavaScript)
	assert.False(t, r.Valid)
	assert.Equal(t, "tree-sitter", r.Checker)
}

func TestTSCResult(t *testing.T) {
	r := tscResult("/tmp/rootcause-1.ts(2,5): error TS2322: Type 'string' is not assignable to type 'number'.\n")
	assert.True(t, r.Valid, "type errors do not fail validation")

	r = tscResult("/tmp/rootcause-1.ts(3,1): error TS1005: ';' expected.\n")
	assert.False(t, r.Valid)
	assert.Equal(t, 3, r.Line)
	assert.Equal(t, 1, r.Column)
	assert.Equal(t, "TS1005: ';' expected.", r.Message)
}

// Inputs tree-sitter recovers from but the interpreter rejects.
var pythonRejected = []struct {
	name    string
	content string
	out     string
	line    int
	message string
}{
	{
		name:    "unindented body",
		content: "def f():\nreturn 1\n",
		out:     "2:1:IndentationError: expected an indented block after function definition on line 1\n",
		line:    2,
		message: "IndentationError: expected an indented block after function definition on line 1",
	},
	{
		name:    "unexpected indent",
		content: "a = 1\n  b = 2\n",
		out:     "2:2:IndentationError: unexpected indent\n",
		line:    2,
		message: "IndentationError: unexpected indent",
	},
	{
		name:    "nested unexpected indent",
		content: "def f():\n    x = 1\n      y = 2\n",
		out:     "3:6:IndentationError: unexpected indent\n",
		line:    3,
		message: "IndentationError: unexpected indent",
	},
	{
		name:    "python 2 print",
		content: "print 'hello'\n",
		out:     "1:1:SyntaxError: Missing parentheses in call to 'print'. Did you mean print(...)?\n",
		line:    1,
		message: "SyntaxError: Missing parentheses in call to 'print'. Did you mean print(...)?",
	},
}

func TestValidate_PythonInterpreterCheck(t *testing.T) {
	for _, tt := range pythonRejected {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestValidator(t, Config{ExternalTools: true})
			v.lookPath = func(string) (string, error) { return "/usr/bin/python3", nil }
			v.run = func(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) (string, error) {
				assert.Equal(t, "python3", name)
				assert.Equal(t, tt.content, string(stdin))
				return tt.out, &exec.ExitError{}
			}

			r := v.Validate(context.Background(), []byte(tt.content), types.LangPython)
			assert.False(t, r.Valid)
			assert.Equal(t, "python3", r.Checker)
			assert.Equal(t, tt.line, r.Line)
			assert.Equal(t, tt.message, r.Message)
		})
	}
}

func TestValidate_PythonMissingInterpreter(t *testing.T) {
	v := newTestValidator(t, Config{ExternalTools: true})
	v.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	r := v.Validate(context.Background(), []byte("a = 1\n  b = 2\n"), types.LangPython)
	assert.True(t, r.Unverified)

	v = newTestValidator(t, Config{ExternalTools: true, FailClosed: true})
	v.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	r = v.Validate(context.Background(), []byte("a = 1\n  b = 2\n"), types.LangPython)
	assert.False(t, r.Valid)
}

func TestValidate_PythonRealInterpreter(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	v := newTestValidator(t, Config{ExternalTools: true, Timeout: 10 * time.Second})

	for _, tt := range pythonRejected {
		t.Run(tt.name, func(t *testing.T) {
			r := v.Validate(context.Background(), []byte(tt.content), types.LangPython)
			assert.False(t, r.Valid, r.Message)
		})
	}

	r := v.Validate(context.Background(), []byte("def f():\n    return 1\n"), types.LangPython)
	assert.True(t, r.Valid)
	assert.False(t, r.Unverified)
	assert.Equal(t, "python3", r.Checker)
}

func TestCheckPython_UnstructuredOutput(t *testing.T) {
	run := func(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) (string, error) {
		return "Traceback (most recent call last):\nMemoryError\n", &exec.ExitError{}
	}
	r, err := checkPython(context.Background(), run, time.Second, []byte("x = 1\n"))
	require.NoError(t, err)
	assert.False(t, r.Valid)
	assert.Equal(t, "MemoryError", r.Message)
	assert.Zero(t, r.Line)
}
