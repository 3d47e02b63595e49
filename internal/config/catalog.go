package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/noah-isme/gema-grader/internal/models"
)

// Default file names inside the configuration directory.
const (
	ModelConfigFile  = "config.yaml"
	PromptConfigFile = "prompts.yaml"
)

// ErrConfiguration is matched by every catalog loading failure.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a missing, malformed, or incomplete configuration document.
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Path, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigurationError match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Placeholders recognised in prompt bodies.
var (
	submissionPlaceholders = []string{"question", "rubric", "student_response"}
	contextPlaceholders    = []string{"course_context", "additional_context"}
	placeholderPattern     = regexp.MustCompile(`\{([a-z_]+)\}`)
)

type gradingSection struct {
	DefaultModel         string  `mapstructure:"default_model" validate:"required"`
	DefaultPromptVersion string  `mapstructure:"default_prompt_version"`
	Temperature          float64 `mapstructure:"temperature" validate:"gte=0,lte=1"`
	MaxTokens            int     `mapstructure:"max_tokens" validate:"gt=0"`
}

type modelEntry struct {
	ID              string   `mapstructure:"id" validate:"required"`
	Name            string   `mapstructure:"name"`
	Provider        string   `mapstructure:"provider"`
	CostPer1KInput  *float64 `mapstructure:"cost_per_1k_input_tokens" validate:"required,gte=0"`
	CostPer1KOutput *float64 `mapstructure:"cost_per_1k_output_tokens" validate:"required,gte=0"`
}

type modelDocument struct {
	Grading gradingSection `mapstructure:"grading"`
	Models  []modelEntry   `mapstructure:"models" validate:"required,min=1,dive"`
}

type promptEntry struct {
	Description string `mapstructure:"description"`
	System      string `mapstructure:"system" validate:"required"`
	Body        string `mapstructure:"body" validate:"required"`
	ContextBody string `mapstructure:"context_body"`
}

type promptDocument struct {
	Prompts map[string]promptEntry `mapstructure:"prompts" validate:"required,min=1,dive"`
}

// LoadCatalog reads config.yaml and prompts.yaml from dir.
func LoadCatalog(dir string) (*models.Catalog, error) {
	return LoadCatalogFiles(filepath.Join(dir, ModelConfigFile), filepath.Join(dir, PromptConfigFile))
}

// LoadCatalogFiles reads the model and prompt documents from explicit paths and
// validates them into an immutable catalog.
func LoadCatalogFiles(modelPath, promptPath string) (*models.Catalog, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	mv, err := readYAML(modelPath)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"grading.default_model", "grading.temperature", "grading.max_tokens", "models"} {
		if !mv.IsSet(key) {
			return nil, &ConfigurationError{Path: modelPath, Reason: fmt.Sprintf("missing required key %q", key)}
		}
	}

	var modelDoc modelDocument
	if err := mv.Unmarshal(&modelDoc); err != nil {
		return nil, &ConfigurationError{Path: modelPath, Reason: "decode failed", Err: err}
	}
	if err := validate.Struct(modelDoc); err != nil {
		return nil, &ConfigurationError{Path: modelPath, Reason: "invalid values", Err: err}
	}

	modelList := make([]models.ModelConfig, 0, len(modelDoc.Models))
	seen := make(map[string]struct{}, len(modelDoc.Models))
	for _, m := range modelDoc.Models {
		id := strings.TrimSpace(m.ID)
		if _, dup := seen[id]; dup {
			return nil, &ConfigurationError{Path: modelPath, Reason: fmt.Sprintf("duplicate model id %q", id)}
		}
		seen[id] = struct{}{}
		modelList = append(modelList, models.ModelConfig{
			ID:              id,
			Name:            m.Name,
			Provider:        m.Provider,
			CostPer1KInput:  *m.CostPer1KInput,
			CostPer1KOutput: *m.CostPer1KOutput,
		})
	}

	defaults := models.GradingDefaults{
		DefaultModel:         strings.TrimSpace(modelDoc.Grading.DefaultModel),
		DefaultPromptVersion: strings.TrimSpace(modelDoc.Grading.DefaultPromptVersion),
		Temperature:          modelDoc.Grading.Temperature,
		MaxTokens:            modelDoc.Grading.MaxTokens,
	}
	if _, ok := seen[defaults.DefaultModel]; !ok {
		return nil, &ConfigurationError{Path: modelPath, Reason: fmt.Sprintf("default model %q has no models entry", defaults.DefaultModel)}
	}

	pv, err := readYAML(promptPath)
	if err != nil {
		return nil, err
	}
	if !pv.IsSet("prompts") {
		return nil, &ConfigurationError{Path: promptPath, Reason: `missing required key "prompts"`}
	}

	var promptDoc promptDocument
	if err := pv.Unmarshal(&promptDoc); err != nil {
		return nil, &ConfigurationError{Path: promptPath, Reason: "decode failed", Err: err}
	}
	if err := validate.Struct(promptDoc); err != nil {
		return nil, &ConfigurationError{Path: promptPath, Reason: "invalid values", Err: err}
	}

	versions := make([]string, 0, len(promptDoc.Prompts))
	for version := range promptDoc.Prompts {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	prompts := make([]models.PromptTemplate, 0, len(versions))
	for _, version := range versions {
		entry := promptDoc.Prompts[version]
		if err := checkBody(entry.Body, false); err != nil {
			return nil, &ConfigurationError{Path: promptPath, Reason: fmt.Sprintf("prompt %q body", version), Err: err}
		}
		if entry.ContextBody != "" {
			if err := checkBody(entry.ContextBody, true); err != nil {
				return nil, &ConfigurationError{Path: promptPath, Reason: fmt.Sprintf("prompt %q context_body", version), Err: err}
			}
		}
		prompts = append(prompts, models.PromptTemplate{
			Version:     version,
			Description: strings.TrimSpace(entry.Description),
			System:      strings.TrimSpace(entry.System),
			Body:        entry.Body,
			ContextBody: entry.ContextBody,
		})
	}

	if defaults.DefaultPromptVersion != "" {
		if _, ok := promptDoc.Prompts[strings.ToLower(defaults.DefaultPromptVersion)]; !ok {
			return nil, &ConfigurationError{Path: modelPath, Reason: fmt.Sprintf("default prompt version %q is not defined in %s", defaults.DefaultPromptVersion, promptPath)}
		}
	}

	return models.NewCatalog(defaults, modelList, prompts), nil
}

func readYAML(path string) (*viper.Viper, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ConfigurationError{Path: path, Reason: "file not found", Err: err}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Path: path, Reason: "malformed yaml", Err: err}
	}
	return v, nil
}

// checkBody rejects unknown placeholders and bodies that would drop a submission field.
func checkBody(body string, allowContext bool) error {
	allowed := make(map[string]bool, len(submissionPlaceholders)+len(contextPlaceholders))
	for _, name := range submissionPlaceholders {
		allowed[name] = true
	}
	if allowContext {
		for _, name := range contextPlaceholders {
			allowed[name] = true
		}
	}

	for _, match := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		if !allowed[match[1]] {
			return fmt.Errorf("unknown placeholder {%s}", match[1])
		}
	}

	for _, name := range submissionPlaceholders {
		if !strings.Contains(body, "{"+name+"}") {
			return fmt.Errorf("missing placeholder {%s}", name)
		}
	}
	return nil
}
