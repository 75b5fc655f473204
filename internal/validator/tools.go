// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// tool is an external syntax checker.
type tool struct {
	name  string
	check func(ctx context.Context, run runFunc, timeout time.Duration, content []byte) (Result, error)
}

var (
	pythonCheck = &tool{name: "python3", check: checkPython}
	nodeCheck   = &tool{name: "node", check: checkNode}
)

// pythonScript compiles stdin with the interpreter's own parser and prints
// line:column:kind: message for the first syntax error.
const pythonScript = `import ast, sys
try:
    ast.parse(sys.stdin.read())
except SyntaxError as e:
    print("%d:%d:%s: %s" % (e.lineno or 0, e.offset or 0, type(e).__name__, e.msg))
    sys.exit(1)
`

// pythonErrRe matches the line printed by pythonScript.
var pythonErrRe = regexp.MustCompile(`(?m)^(\d+):(\d+):(\w+): (.*)$`)

// checkPython runs ast.parse over content. It catches indentation errors
// and Python 2 statements that tree-sitter recovers from.
func checkPython(ctx context.Context, run runFunc, timeout time.Duration, content []byte) (Result, error) {
	out, err := run(ctx, timeout, content, "python3", "-c", pythonScript)
	if err == nil {
		return Result{Valid: true, Checker: "python3"}, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Result{}, err
	}

	r := Result{Valid: false, Checker: "python3", Message: lastLine(out)}
	if m := pythonErrRe.FindStringSubmatch(out); m != nil {
		r.Line, _ = strconv.Atoi(m[1])
		r.Column, _ = strconv.Atoi(m[2])
		r.Message = m[3] + ": " + strings.TrimSpace(m[4])
	}
	return r, nil
}

// lastLine returns the last non-blank line of out.
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

var (
	tscCheck    = &tool{name: "tsc", check: tscChecker(".ts")}
	tscTSXCheck = &tool{name: "tsc", check: tscChecker(".tsx")}
)

// nodeErrRe matches the location line node prints for a syntax error:
// [stdin]:3
var nodeErrRe = regexp.MustCompile(`\[stdin\]:(\d+)`)

// checkNode runs `node --check -` with content on stdin.
func checkNode(ctx context.Context, run runFunc, timeout time.Duration, content []byte) (Result, error) {
	out, err := run(ctx, timeout, content, "node", "--check", "-")
	if err == nil {
		return Result{Valid: true, Checker: "node"}, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Result{}, err
	}

	r := Result{Valid: false, Checker: "node", Message: nodeMessage(out)}
	if m := nodeErrRe.FindStringSubmatch(out); m != nil {
		r.Line, _ = strconv.Atoi(m[1])
	}
	return r, nil
}

// nodeMessage picks the "SyntaxError: ..." line from node's output.
func nodeMessage(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Error:") {
			return strings.TrimSpace(line)
		}
	}
	return strings.TrimSpace(out)
}

// tscDiagRe matches tsc diagnostics: file.ts(3,5): error TS1005: ';' expected.
var tscDiagRe = regexp.MustCompile(`\((\d+),(\d+)\): error TS(\d+): (.+)`)

// tscChecker runs tsc on a temp copy of content with the given extension.
// Only grammar diagnostics (TS1000-TS1999) fail validation; the temp copy
// cannot resolve project imports.
func tscChecker(ext string) func(context.Context, runFunc, time.Duration, []byte) (Result, error) {
	return func(ctx context.Context, run runFunc, timeout time.Duration, content []byte) (Result, error) {
		return checkTSC(ctx, run, timeout, content, ext)
	}
}

func checkTSC(ctx context.Context, run runFunc, timeout time.Duration, content []byte, ext string) (Result, error) {
	f, err := os.CreateTemp("", "rootcause-*"+ext)
	if err != nil {
		return Result{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(content); err != nil {
		f.Close()
		return Result{}, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("closing temp file: %w", err)
	}

	out, err := run(ctx, timeout, nil, "tsc", "--noEmit", "--pretty", "false", "--skipLibCheck", "--jsx", "preserve", f.Name())
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, err
		}
	}
	return tscResult(out), nil
}

func tscResult(out string) Result {
	for _, line := range strings.Split(out, "\n") {
		m := tscDiagRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		code, _ := strconv.Atoi(m[3])
		if code < 1000 || code >= 2000 {
			continue
		}
		ln, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		return Result{Valid: false, Line: ln, Column: col, Message: "TS" + m[3] + ": " + strings.TrimSpace(m[4]), Checker: "tsc"}
	}
	return Result{Valid: true, Checker: "tsc"}
}

// runCommand executes a command with a timeout and captures combined
// output. A context deadline is reported as context.DeadlineExceeded.
func runCommand(ctx context.Context, timeout time.Duration, stdin []byte, name string, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if cmdCtx.Err() != nil {
		return buf.String(), cmdCtx.Err()
	}
	return buf.String(), err
}
