// Package prompt renders versioned grading prompts from submission fields.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/noah-isme/gema-grader/internal/models"
)

var (
	// ErrTemplateNotFound indicates the requested prompt version is not configured.
	ErrTemplateNotFound = errors.New("prompt template not found")
	// ErrInvalidSubmission indicates a required submission field is empty.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// TemplateNotFoundError names the unknown version and the versions that do exist.
type TemplateNotFoundError struct {
	Version   string
	Available []string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("prompt version %q not found (available: %s)", e.Version, strings.Join(e.Available, ", "))
}

// Is makes every TemplateNotFoundError match ErrTemplateNotFound.
func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

const missingContext = "N/A"

// Rendered is the prompt text sent to the model for one submission.
type Rendered struct {
	Version string
	System  string
	User    string
}

// Renderer fills catalog templates with submission fields.
type Renderer struct {
	catalog  *models.Catalog
	validate *validator.Validate
}

// NewRenderer constructs a renderer over the loaded catalog.
func NewRenderer(catalog *models.Catalog) *Renderer {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", validators.NotBlank)

	return &Renderer{catalog: catalog, validate: validate}
}

// Render substitutes the submission into the template registered under version.
func (r *Renderer) Render(version string, submission models.Submission) (Rendered, error) {
	tmpl, ok := r.catalog.Prompt(version)
	if !ok {
		return Rendered{}, &TemplateNotFoundError{Version: version, Available: r.catalog.PromptVersions()}
	}

	if err := r.validate.Struct(submission); err != nil {
		return Rendered{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	body := tmpl.Body
	pairs := []string{
		"{question}", submission.Question,
		"{rubric}", submission.Rubric,
		"{student_response}", submission.StudentResponse,
	}
	if submission.HasContext() && tmpl.ContextBody != "" {
		body = tmpl.ContextBody
		pairs = append(pairs,
			"{course_context}", orMissing(submission.CourseContext),
			"{additional_context}", orMissing(submission.AdditionalContext),
		)
	}

	// Replacer scans the template once, so placeholder text inside a
	// submission is never substituted.
	user := strings.NewReplacer(pairs...).Replace(body)

	return Rendered{
		Version: tmpl.Version,
		System:  tmpl.System,
		User:    user,
	}, nil
}

func orMissing(value string) string {
	if strings.TrimSpace(value) == "" {
		return missingContext
	}
	return value
}
