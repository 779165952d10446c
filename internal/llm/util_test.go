package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"title": "Filesystem"}`, `{"title": "Filesystem"}`},
		{"json fence", "```json\n[\"files\"]\n```", `["files"]`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence without newline keeps body", "```{\"a\": 1}```", `{"a": 1}`},
		{"chatty preamble", "Here are the picks you asked for:\n[{\"title\": \"Git\"}]", `[{"title": "Git"}]`},
		{"trailing chatter", "{\"ok\": true}\n\nAnything else?", `{"ok": true}`},
		{"braces in strings", `Result: {"cmd": "echo '}' {x}"}`, `{"cmd": "echo '}' {x}"}`},
		{"escaped quote", `{"say": "a \"}\" b"} tail`, `{"say": "a \"}\" b"}`},
		{"unbalanced returned as is", `{"title": "Git"`, `{"title": "Git"`},
		{"no json", "  nothing to see  ", "nothing to see"},
		{"bracketed prose before object", "Per the docs [linked above], the answer is {\"ok\": true}", `{"ok": true}`},
		{"invalid object skipped", "{not json} then {\"a\": 1}", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.in))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		open, close byte
		want        string
	}{
		{"object", `{"a": {"b": 1}} rest`, '{', '}', `{"a": {"b": 1}}`},
		{"array of arrays", `[[1], [2, [3]]],`, '[', ']', `[[1], [2, [3]]]`},
		{"wrong opener", `x{"a": 1}`, '{', '}', ""},
		{"empty", "", '[', ']', ""},
		{"never closes", `[1, 2`, '[', ']', ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractBalanced(tt.in, tt.open, tt.close))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "```json\n[{\"title\": \"Filesystem MCP Server\"}]\n```", `[{"title": "Filesystem MCP Server"}]`},
		{"between prose", "Sure!\n[{\"title\": \"A\"}]\nHope this helps.", `[{"title": "A"}]`},
		{"nested in object", `{"servers": [{"title": "A"}]}`, `[{"title": "A"}]`},
		{"bracket in title", `[{"title": "weird ] title"}]`, `[{"title": "weird ] title"}]`},
		{"refusal", "sorry, I cannot help", ""},
		{"truncated", `[{"title": "A"`, ""},
		{"bracketed prose first", "Based on the results [see below], here are picks:\n[{\"title\":\"A\"}]", `[{"title":"A"}]`},
		{"only prose brackets", "see [a] and [b]", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONArray(tt.in))
		})
	}
}
