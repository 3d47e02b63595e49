package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PromptTemplate is a versioned grading prompt loaded from prompts.yaml.
type PromptTemplate struct {
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	System      string `json:"system"`
	Body        string `json:"body"`
	ContextBody string `json:"context_body,omitempty"`
}

// ModelConfig describes one invocable model and its pricing per 1K tokens (USD).
type ModelConfig struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Provider        string  `json:"provider"`
	CostPer1KInput  float64 `json:"cost_per_1k_input_tokens"`
	CostPer1KOutput float64 `json:"cost_per_1k_output_tokens"`
}

// GradingDefaults holds the parameters applied when a request does not override them.
type GradingDefaults struct {
	DefaultModel         string  `json:"default_model"`
	DefaultPromptVersion string  `json:"default_prompt_version"`
	Temperature          float64 `json:"temperature"`
	MaxTokens            int     `json:"max_tokens"`
}

// ModelPricing is the cost rate of a single model.
type ModelPricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// PricingTable maps model identifiers to their cost rates.
type PricingTable map[string]ModelPricing

// Catalog is the immutable grading configuration shared by every grading call.
type Catalog struct {
	defaults GradingDefaults
	models   map[string]ModelConfig
	prompts  map[string]PromptTemplate
}

// NewCatalog copies the supplied configuration into a read-only catalog.
// Prompt versions are matched case-insensitively.
func NewCatalog(defaults GradingDefaults, modelList []ModelConfig, prompts []PromptTemplate) *Catalog {
	c := &Catalog{
		defaults: defaults,
		models:   make(map[string]ModelConfig, len(modelList)),
		prompts:  make(map[string]PromptTemplate, len(prompts)),
	}
	for _, m := range modelList {
		c.models[m.ID] = m
	}
	for _, p := range prompts {
		c.prompts[strings.ToLower(p.Version)] = p
	}
	return c
}

// Defaults returns the grading defaults.
func (c *Catalog) Defaults() GradingDefaults {
	return c.defaults
}

// Model returns the configuration for the given model identifier.
func (c *Catalog) Model(id string) (ModelConfig, bool) {
	m, ok := c.models[id]
	return m, ok
}

// Prompt returns the template registered under version.
func (c *Catalog) Prompt(version string) (PromptTemplate, bool) {
	p, ok := c.prompts[strings.ToLower(strings.TrimSpace(version))]
	return p, ok
}

// PromptVersions lists the known prompt versions in sorted order.
func (c *Catalog) PromptVersions() []string {
	versions := make([]string, 0, len(c.prompts))
	for _, p := range c.prompts {
		versions = append(versions, p.Version)
	}
	sort.Strings(versions)
	return versions
}

// Pricing builds the pricing table from the configured models.
func (c *Catalog) Pricing() PricingTable {
	table := make(PricingTable, len(c.models))
	for id, m := range c.models {
		table[id] = ModelPricing{InputPer1K: m.CostPer1KInput, OutputPer1K: m.CostPer1KOutput}
	}
	return table
}

// Submission carries the fields supplied for one grading call.
type Submission struct {
	Question          string `json:"question" validate:"required,notblank"`
	Rubric            string `json:"rubric" validate:"required,notblank"`
	StudentResponse   string `json:"student_response" validate:"required,notblank"`
	CourseContext     string `json:"course_context,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// HasContext reports whether optional course or assignment context was supplied.
func (s Submission) HasContext() bool {
	return strings.TrimSpace(s.CourseContext) != "" || strings.TrimSpace(s.AdditionalContext) != ""
}

// RubricCriterion is one scored line item of a rubric.
type RubricCriterion struct {
	Criterion   string  `json:"criterion"`
	Points      float64 `json:"points"`
	Description string  `json:"description"`
}

// Rubric is a structured rubric that can be flattened into prompt text.
type Rubric struct {
	TotalPoints float64           `json:"total_points"`
	Criteria    []RubricCriterion `json:"criteria"`
}

// Format renders the rubric as the plain text placed into the prompt.
func (r Rubric) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Points: %s\n", formatPoints(r.TotalPoints))
	if len(r.Criteria) == 0 {
		return b.String()
	}

	b.WriteString("\nGrading Criteria:")
	for i, c := range r.Criteria {
		fmt.Fprintf(&b, "\n\n%d. %s (%s points)", i+1, c.Criterion, formatPoints(c.Points))
		if desc := strings.TrimSpace(c.Description); desc != "" {
			fmt.Fprintf(&b, "\n   %s", desc)
		}
	}
	return b.String()
}

func formatPoints(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// GradingResult is the outcome of one grading call.
type GradingResult struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	RequestID     string    `gorm:"size:36;uniqueIndex" json:"request_id"`
	Grade         float64   `gorm:"not null" json:"grade"`
	TotalPoints   float64   `gorm:"not null" json:"total_points"`
	Feedback      string    `gorm:"type:text" json:"feedback"`
	Strengths     []string  `gorm:"serializer:json;type:text" json:"strengths,omitempty"`
	Improvements  []string  `gorm:"serializer:json;type:text" json:"improvements,omitempty"`
	InputTokens   int64     `json:"input_tokens"`
	OutputTokens  int64     `json:"output_tokens"`
	TotalTokens   int64     `json:"total_tokens"`
	CostUSD       float64   `json:"cost_usd"`
	PromptVersion string    `gorm:"size:64;index" json:"prompt_version"`
	ModelID       string    `gorm:"size:255;index" json:"model_id"`
	ModelName     string    `gorm:"size:255" json:"model_name,omitempty"`
	Temperature   float64   `json:"temperature"`
	MaxTokens     int       `json:"max_tokens"`
	GradedAt      time.Time `gorm:"index" json:"graded_at"`
}

// TableName pins the result log table name.
func (GradingResult) TableName() string {
	return "grading_results"
}
