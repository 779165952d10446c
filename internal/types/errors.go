package types

import "fmt"

// InvalidInputError reports malformed caller input. It is the only error the
// discovery pipeline surfaces to callers as a request failure.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}
