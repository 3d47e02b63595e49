package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRubricFormat(t *testing.T) {
	rubric := Rubric{
		TotalPoints: 10,
		Criteria: []RubricCriterion{
			{Criterion: "Accuracy", Points: 6, Description: "Defines erosion correctly."},
			{Criterion: "Clarity", Points: 4},
			{Criterion: "Bonus", Points: 0.5, Description: "  "},
		},
	}

	expected := "Total Points: 10\n\nGrading Criteria:" +
		"\n\n1. Accuracy (6 points)\n   Defines erosion correctly." +
		"\n\n2. Clarity (4 points)" +
		"\n\n3. Bonus (0.5 points)"
	require.Equal(t, expected, rubric.Format())
}

func TestRubricFormatWithoutCriteria(t *testing.T) {
	require.Equal(t, "Total Points: 5\n", Rubric{TotalPoints: 5}.Format())
}

func TestCatalogIsDetachedFromInputs(t *testing.T) {
	modelList := []ModelConfig{{ID: "m", Name: "Model", CostPer1KInput: 1, CostPer1KOutput: 2}}
	prompts := []PromptTemplate{{Version: "V1_Basic", System: "s", Body: "b"}}

	catalog := NewCatalog(GradingDefaults{DefaultModel: "m", MaxTokens: 10}, modelList, prompts)
	modelList[0].Name = "changed"
	prompts[0].System = "changed"

	model, ok := catalog.Model("m")
	require.True(t, ok)
	require.Equal(t, "Model", model.Name)

	tmpl, ok := catalog.Prompt("v1_basic")
	require.True(t, ok)
	require.Equal(t, "s", tmpl.System)

	pricing := catalog.Pricing()
	pricing["m"] = ModelPricing{}
	require.Equal(t, ModelPricing{InputPer1K: 1, OutputPer1K: 2}, catalog.Pricing()["m"])

	_, ok = catalog.Prompt("missing")
	require.False(t, ok)
	require.Equal(t, []string{"V1_Basic"}, catalog.PromptVersions())
}

func TestSubmissionHasContext(t *testing.T) {
	require.False(t, Submission{Question: "q"}.HasContext())
	require.False(t, Submission{CourseContext: "  "}.HasContext())
	require.True(t, Submission{AdditionalContext: "lab 3"}.HasContext())
}
