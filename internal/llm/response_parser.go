package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// CleanJSONResponse removes common formatting from model JSON responses:
// markdown code fences (```json or ```) and surrounding whitespace.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	// Fuzzy fences: markers that survived the exact trims above, e.g. a
	// fence mid-text after a preamble line.
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")

	return strings.TrimSpace(response)
}

var (
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// RepairJSON applies best-effort corrections for defects models commonly
// produce: trailing commas before a closing brace/bracket, unquoted object
// keys, and single-quoted strings. The result is not guaranteed to parse;
// callers retry Unmarshal on it.
func RepairJSON(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = strings.ReplaceAll(s, "'", `"`)
	return s
}

// ExtractJSON extracts a JSON object from a model response using flexible
// strategies:
//  1. Direct parse of the cleaned response
//  2. The first-{ to last-} span of the text
//  3. The same span after repair transformations
//
// Malformed input is an expected case; the only failure mode is a
// JSONParseError carrying the original text for diagnostics.
func ExtractJSON(response string, target interface{}) error {
	trimmed := strings.TrimSpace(response)

	cleaned := CleanJSONResponse(trimmed)
	if err := json.Unmarshal([]byte(cleaned), target); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		snippet := cleaned[start : end+1]
		if err := json.Unmarshal([]byte(snippet), target); err == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(RepairJSON(snippet)), target); err == nil {
			return nil
		}
	}

	return &JSONParseError{Response: response, Message: "could not parse JSON object"}
}

// JSONParseError represents an error that occurred while parsing a model
// JSON response.
type JSONParseError struct {
	Response string
	Message  string
}

func (e *JSONParseError) Error() string {
	return e.Message + ": " + TruncateForError(e.Response, 200)
}

// TruncateForError truncates a string for error messages.
func TruncateForError(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
