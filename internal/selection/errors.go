package selection

import "fmt"

// ParseError means the selection response held no usable JSON array.
// Response is the start of what the model returned.
type ParseError struct {
	Response string
	Cause    error
}

const parseErrorSnippet = 120

func newParseError(response string, cause error) *ParseError {
	if r := []rune(response); len(r) > parseErrorSnippet {
		response = string(r[:parseErrorSnippet]) + "..."
	}
	return &ParseError{Response: response, Cause: cause}
}

func (e *ParseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("no JSON array in selection response %q", e.Response)
	}
	return fmt.Sprintf("failed to decode selection response %q: %v", e.Response, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
