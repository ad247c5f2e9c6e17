// Package extract implements the pre-processor dispatch table and the
// candidate extractor consumed by the scan orchestrator. Pre-processors are
// pure byte-transform functions: given a file's raw content and its
// extension, they rewrite template-specific syntax into a form the
// extractor can read class-name candidates out of directly, without
// attempting to parse the host template language.
package extract

import (
	"bytes"
	"regexp"
)

// Preprocessor transforms raw file content before candidate extraction.
type Preprocessor func(content []byte) []byte

// dispatch maps a lowercased file extension to the Preprocessor that
// normalizes its template syntax. Extensions absent from this table are
// passed through unmodified.
var dispatch = map[string]Preprocessor{
	"clj":    stripClojureKeywordColon,
	"cljs":   stripClojureKeywordColon,
	"cljc":   stripClojureKeywordColon,
	"cshtml": unwrapAtBraces,
	"razor":  unwrapAtBraces,
	"haml":   stripHamlAttributeSigils,
	"json":   unquoteJSONStrings,
	"pug":    stripPugAttributeSigils,
	"rb":     unwrapErbTags,
	"erb":    unwrapErbTags,
	"slim":   stripSlimAttributeSigils,
	"svelte": unwrapCurlyBraces,
	"vue":    unwrapCurlyBraces,
}

// PreProcessInput applies the preprocessor registered for extension to
// content, or returns content unchanged if no entry matches.
func PreProcessInput(content []byte, extension string) []byte {
	if p, ok := dispatch[extension]; ok {
		return p(content)
	}
	return content
}

// stripClojureKeywordColon removes the leading ":" from Clojure keywords
// used as CSS class tokens (e.g. ":bg-red-500" -> "bg-red-500"). The
// extractor accepts ":" as a candidate byte, so without this step the colon
// would stay on the extracted token.
var clojureKeyword = regexp.MustCompile(`:([a-zA-Z_][\w-]*)`)

func stripClojureKeywordColon(content []byte) []byte {
	return clojureKeyword.ReplaceAll(content, []byte("$1"))
}

// unwrapAtBraces turns Razor's "@{ ... }" code blocks and "@(...)"
// expressions into plain text by dropping the "@" sigil, since candidate
// tokens frequently appear inside them as plain string literals.
var atSigil = regexp.MustCompile(`@([{(])`)

func unwrapAtBraces(content []byte) []byte {
	return atSigil.ReplaceAll(content, []byte("$1"))
}

// stripHamlAttributeSigils replaces each Ruby interpolation opener "#{"
// with two spaces. No other Haml syntax is changed.
func stripHamlAttributeSigils(content []byte) []byte {
	content = bytes.ReplaceAll(content, []byte("#{"), []byte("  "))
	return content
}

// unquoteJSONStrings removes the quote characters around JSON string
// values so a value like "bg-red-500" is read as a bare token rather than
// a quoted one -- JSON has no other syntax meaningfully different from
// plain text for extraction purposes.
func unquoteJSONStrings(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte(`"`), []byte(" "))
}

// stripPugAttributeSigils replaces Pug's "(" / ")" attribute-list
// delimiters with spaces, which otherwise become part of adjacent tokens.
// "," separators are left as they are.
func stripPugAttributeSigils(content []byte) []byte {
	content = bytes.ReplaceAll(content, []byte("("), []byte(" "))
	content = bytes.ReplaceAll(content, []byte(")"), []byte(" "))
	return content
}

// unwrapErbTags turns "<%= expr %>" / "<% expr %>" into plain "expr" so
// that a class-name string literal embedded in the expression is visible
// to the extractor as ordinary text.
var erbTag = regexp.MustCompile(`<%=?\s*(.*?)\s*%>`)

func unwrapErbTags(content []byte) []byte {
	return erbTag.ReplaceAll(content, []byte("$1"))
}

// stripSlimAttributeSigils replaces Slim's "{" / "}" attribute-hash
// delimiters with spaces.
func stripSlimAttributeSigils(content []byte) []byte {
	content = bytes.ReplaceAll(content, []byte("{"), []byte(" "))
	content = bytes.ReplaceAll(content, []byte("}"), []byte(" "))
	return content
}

// unwrapCurlyBraces strips Vue/Svelte mustache-style interpolation braces
// ("{{ expr }}", "{#if}"/"{/if}" blocks) down to their inner text, since
// class bindings frequently appear as string literals inside them.
var curlyBraces = regexp.MustCompile(`\{\{?\s*(.*?)\s*\}?\}`)

func unwrapCurlyBraces(content []byte) []byte {
	return curlyBraces.ReplaceAll(content, []byte("$1"))
}
