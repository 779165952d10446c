package catalog

import "fmt"

// LoadError is returned when a catalog cannot be read, parsed or validated
type LoadError struct {
	Source  string // file path, "embedded" or "postgres"
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("catalog %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("catalog %s: %s", e.Source, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// RegistryError is returned when a remote registry search fails
type RegistryError struct {
	Registry   string
	Query      string
	StatusCode int
	Message    string
	Cause      error
}

func (e *RegistryError) Error() string {
	msg := fmt.Sprintf("%s search %q: %s", e.Registry, e.Query, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *RegistryError) Unwrap() error {
	return e.Cause
}
