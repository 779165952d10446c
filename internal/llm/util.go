// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock removes markdown code block wrappers and conversational
// preamble or trailing text from JSON responses. The first balanced object or
// array that is valid JSON wins; text without one is returned trimmed.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if extracted := firstValid(text, "{["); extracted != "" {
		return extracted
	}
	return text
}

// ExtractJSONArray returns the first balanced, valid JSON array in text, or "" when there is none.
// Bracketed prose such as "[see below]" is skipped.
func ExtractJSONArray(text string) string {
	return firstValid(CleanJSONBlock(text), "[")
}

// firstValid tries every opener position in order and returns the first
// balanced span that is valid JSON
func firstValid(text, openers string) string {
	for offset := 0; offset < len(text); {
		i := strings.IndexAny(text[offset:], openers)
		if i < 0 {
			return ""
		}
		start := offset + i

		var span string
		if text[start] == '{' {
			span = extractJSONObject(text[start:])
		} else {
			span = extractJSONArray(text[start:])
		}
		if span != "" && json.Valid([]byte(span)) {
			return span
		}
		offset = start + 1
	}
	return ""
}

func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

// extractBalanced returns the prefix of text spanning one balanced open/close
// pair, ignoring delimiters inside JSON strings. text must start with open.
func extractBalanced(text string, open, close byte) string {
	if len(text) == 0 || text[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
