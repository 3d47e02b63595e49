package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/models"
)

func testCatalog() *models.Catalog {
	return models.NewCatalog(
		models.GradingDefaults{DefaultModel: "m", Temperature: 0, MaxTokens: 100},
		[]models.ModelConfig{{ID: "m", CostPer1KInput: 0.003, CostPer1KOutput: 0.015}},
		[]models.PromptTemplate{
			{
				Version: "v1_basic",
				System:  "You are a grader.",
				Body:    "Question:\n{question}\n\nRubric:\n{rubric}\n\nStudent Response:\n{student_response}\n",
			},
			{
				Version:     "v2_context",
				System:      "You are a grader with context.",
				Body:        "{question}|{rubric}|{student_response}",
				ContextBody: "Course: {course_context}\n{question}|{rubric}|{student_response}\nNotes: {additional_context}",
			},
		},
	)
}

func TestRenderContainsFieldsVerbatim(t *testing.T) {
	renderer := NewRenderer(testCatalog())

	submissions := []models.Submission{
		{
			Question:        "What is soil erosion?",
			Rubric:          "Award up to 10 points for accuracy and clarity.",
			StudentResponse: "Soil erosion is the loss of topsoil due to wind and water.",
		},
		{
			Question:        "Explain {question} placeholders.",
			Rubric:          "Total Points: 5\n\n1. Clarity (5 points)",
			StudentResponse: "Braces like {rubric} and {student_response} are literal here.  ",
		},
		{
			Question:        "Unicode ✓",
			Rubric:          "Punkte: 3",
			StudentResponse: "Die Antwort ist \"ja\".\n\nZweite Zeile.",
		},
	}

	for _, submission := range submissions {
		rendered, err := renderer.Render("v1_basic", submission)
		require.NoError(t, err)
		require.Equal(t, "v1_basic", rendered.Version)
		require.Equal(t, "You are a grader.", rendered.System)
		require.Contains(t, rendered.User, submission.Question)
		require.Contains(t, rendered.User, submission.Rubric)
		require.Contains(t, rendered.User, submission.StudentResponse)

		// Strip the submitted text; no template placeholder may remain.
		remainder := rendered.User
		for _, field := range []string{submission.Question, submission.Rubric, submission.StudentResponse} {
			remainder = strings.Replace(remainder, field, "", 1)
		}
		for _, placeholder := range []string{"{question}", "{rubric}", "{student_response}"} {
			require.NotContains(t, remainder, placeholder)
		}
	}
}

func TestRenderUnknownVersion(t *testing.T) {
	renderer := NewRenderer(testCatalog())

	_, err := renderer.Render("v9_missing", models.Submission{Question: "q", Rubric: "r", StudentResponse: "s"})
	require.ErrorIs(t, err, ErrTemplateNotFound)

	var notFound *TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "v9_missing", notFound.Version)
	require.Equal(t, []string{"v1_basic", "v2_context"}, notFound.Available)
}

func TestRenderVersionIsCaseInsensitive(t *testing.T) {
	renderer := NewRenderer(testCatalog())

	rendered, err := renderer.Render("V1_Basic", models.Submission{Question: "q", Rubric: "r", StudentResponse: "s"})
	require.NoError(t, err)
	require.Equal(t, "v1_basic", rendered.Version)
}

func TestRenderRejectsBlankFields(t *testing.T) {
	renderer := NewRenderer(testCatalog())

	cases := map[string]models.Submission{
		"empty question":  {Question: "", Rubric: "r", StudentResponse: "s"},
		"blank rubric":    {Question: "q", Rubric: "  \n", StudentResponse: "s"},
		"missing answer":  {Question: "q", Rubric: "r"},
		"whitespace only": {Question: "\t", Rubric: "\t", StudentResponse: "\t"},
	}

	for name, submission := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := renderer.Render("v1_basic", submission)
			require.ErrorIs(t, err, ErrInvalidSubmission)
		})
	}
}

func TestRenderContextBody(t *testing.T) {
	renderer := NewRenderer(testCatalog())

	rendered, err := renderer.Render("v2_context", models.Submission{
		Question:        "q",
		Rubric:          "r",
		StudentResponse: "s",
		CourseContext:   "GEOG 101",
	})
	require.NoError(t, err)
	require.Equal(t, "Course: GEOG 101\nq|r|s\nNotes: N/A", rendered.User)

	plain, err := renderer.Render("v2_context", models.Submission{Question: "q", Rubric: "r", StudentResponse: "s"})
	require.NoError(t, err)
	require.Equal(t, "q|r|s", plain.User)
}

func TestRenderContextIgnoredWithoutContextBody(t *testing.T) {
	renderer := NewRenderer(testCatalog())

	rendered, err := renderer.Render("v1_basic", models.Submission{
		Question:          "q",
		Rubric:            "r",
		StudentResponse:   "s",
		AdditionalContext: "extra",
	})
	require.NoError(t, err)
	require.NotContains(t, rendered.User, "extra")
}
