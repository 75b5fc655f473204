// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the data model shared by the classifier and the
// patch engine.
package types

import (
	"path/filepath"
	"strings"
)

// Language identifies the source language of a diagnostic or a patched file.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJSX        Language = "jsx"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

// ParseLanguage maps a user supplied tag to a Language. Common aliases
// ("py", "js", "ts") are accepted; anything else is LangUnknown.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return LangPython
	case "javascript", "js", "node":
		return LangJavaScript
	case "typescript", "ts":
		return LangTypeScript
	case "jsx":
		return LangJSX
	case "tsx":
		return LangTSX
	default:
		return LangUnknown
	}
}

var extLanguages = map[string]Language{
	".py":  LangPython,
	".pyw": LangPython,
	".js":  LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".jsx": LangJSX,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

// LanguageForPath infers the language of a file from its extension.
func LanguageForPath(path string) Language {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// Severity is the severity level of a classified diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category is the coarse class of a diagnostic.
type Category string

const (
	CategorySyntax  Category = "syntax"
	CategoryRuntime Category = "runtime"
	CategoryImport  Category = "import"
	CategoryType    Category = "type"
	CategoryLinting Category = "linting"
	CategoryBuild   Category = "build"
	CategoryUnknown Category = "unknown"
)
