package types

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ProjectContextPayload is the JSON shape of project context accepted by /discover-json and /project-context
type ProjectContextPayload struct {
	UserPrompt                    string            `json:"user_prompt" validate:"required,notblank"`
	ProjectMDCFileContents        *string           `json:"project_mdc_file_contents,omitempty"`
	ProjectPackageManagerContents *string           `json:"project_package_manager_contents,omitempty"`
	AdditionalFiles               map[string]string `json:"additional_files,omitempty"`
}

// DiscoveryRequest is the JSON request body for /discover-json
type DiscoveryRequest struct {
	Prompt     string                 `json:"prompt" validate:"required,notblank"`
	Context    *ProjectContextPayload `json:"context,omitempty"`
	Synthesize *bool                  `json:"synthesize,omitempty"`
}

// DiscoveryResponse is the public response envelope
type DiscoveryResponse struct {
	RequestID  string            `json:"request_id,omitempty"`
	MCPServers RecommendationSet `json:"mcp_servers"`
	Queries    []string          `json:"queries,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// Validate validates the DiscoveryRequest using the validator.
// The nested context is only checked when present.
func (r *DiscoveryRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return toInvalidInput(err)
	}
	return nil
}

// Validate validates the ProjectContextPayload using the validator.
func (p *ProjectContextPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return toInvalidInput(err)
	}
	return nil
}

// toInvalidInput converts validator errors into an InvalidInputError naming the first failing field
func toInvalidInput(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return &InvalidInputError{
			Field:   jsonFieldName(fe.Field()),
			Message: "must be a non-empty string",
		}
	}
	return &InvalidInputError{Message: err.Error()}
}

func jsonFieldName(field string) string {
	switch field {
	case "Prompt":
		return "prompt"
	case "UserPrompt":
		return "user_prompt"
	default:
		return strings.ToLower(field)
	}
}
