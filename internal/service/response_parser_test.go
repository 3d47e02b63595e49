package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/models"
)

func testPricing() models.PricingTable {
	return models.PricingTable{
		"claude-test": {InputPer1K: 0.003, OutputPer1K: 0.015},
	}
}

func TestParseResponseRoundTrip(t *testing.T) {
	result, err := ParseResponse("Grade: 8/10\nFeedback: Clear definition, cites wind and water.", "claude-test", 1200, 340, testPricing())
	require.NoError(t, err)
	require.Equal(t, 8.0, result.Grade)
	require.Equal(t, 10.0, result.TotalPoints)
	require.Equal(t, "Clear definition, cites wind and water.", result.Feedback)
	require.Equal(t, int64(1200), result.InputTokens)
	require.Equal(t, int64(340), result.OutputTokens)
	require.Equal(t, int64(1540), result.TotalTokens)
	require.Equal(t, "claude-test", result.ModelID)

	expected := float64(1200)/1000*0.003 + float64(340)/1000*0.015
	require.Equal(t, expected, result.CostUSD)
}

func TestParseGradeAccepted(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		grade    float64
		total    float64
		feedback string
	}{
		{"canonical", "Grade: 7/10\nFeedback: Good but missing causes.", 7, 10, "Good but missing causes."},
		{"leading blank lines", "\n\n  Grade: 3/5\nFeedback: Partial.", 3, 5, "Partial."},
		{"decimal grade", "Grade: 4.5 / 5\nFeedback: Nearly there.", 4.5, 5, "Nearly there."},
		{"crlf", "Grade: 10/10\r\nFeedback: Perfect.\r\n", 10, 10, "Perfect."},
		{"zero grade", "Grade: 0/10\nFeedback: Off topic.", 0, 10, "Off topic."},
		{"multi line feedback", "Grade: 6/10\nFeedback: Strengths:\n- clear\nImprovements:\n- causes", 6, 10, "Strengths:\n- clear\nImprovements:\n- causes"},
		{"feedback without marker", "Grade: 9/10\nExcellent work overall.", 9, 10, "Excellent work overall."},
		{"grade only", "Grade: 2/4", 2, 4, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseGrade(tc.text)
			require.NoError(t, err)
			require.Equal(t, tc.grade, parsed.Grade)
			require.Equal(t, tc.total, parsed.TotalPoints)
			require.Equal(t, tc.feedback, parsed.Feedback)
		})
	}
}

func TestParseGradeRejected(t *testing.T) {
	cases := map[string]string{
		"empty":                 "",
		"whitespace":            "  \n\t\n",
		"no marker":             "The student did well. 8/10.",
		"marker not first line": "Here is my evaluation.\nGrade: 8/10\nFeedback: ok",
		"non numeric grade":     "Grade: eight/10\nFeedback: ok",
		"missing total":         "Grade: 8\nFeedback: ok",
		"negative grade":        "Grade: -1/10\nFeedback: ok",
		"zero total":            "Grade: 0/0\nFeedback: ok",
		"grade above total":     "Grade: 12/10\nFeedback: ok",
		"trailing text":         "Grade: 8/10 - good\nFeedback: ok",
		"markdown decorated":    "**Grade:** 8/10\nFeedback: ok",
		"json instead":          `{"grade": 8, "total_points": 10, "feedback": "ok"}`,
	}

	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGrade(text)
			require.ErrorIs(t, err, ErrResponseParse)

			result, err := ParseResponse(text, "claude-test", 10, 10, testPricing())
			require.ErrorIs(t, err, ErrResponseParse)
			require.Equal(t, models.GradingResult{}, result)
		})
	}
}

func TestParseGradeFeedbackSections(t *testing.T) {
	text := "Grade: 6/10\n" +
		"Feedback: The definition is correct but the causes are thin.\n\n" +
		"Strengths:\n- Clear definition of erosion\n- Mentions wind and water\n\n" +
		"**Areas for Improvement:**\n1. Explain how deforestation contributes\n2) Give a prevention method\n" +
		"Keep practicing."

	parsed, err := ParseGrade(text)
	require.NoError(t, err)
	require.Equal(t, []string{"Clear definition of erosion", "Mentions wind and water"}, parsed.Strengths)
	require.Equal(t, []string{"Explain how deforestation contributes", "Give a prevention method"}, parsed.Improvements)
	require.True(t, strings.HasPrefix(parsed.Feedback, "The definition is correct"))
	require.Contains(t, parsed.Feedback, "Keep practicing.")

	result, err := ParseResponse(text, "claude-test", 10, 10, testPricing())
	require.NoError(t, err)
	require.Equal(t, parsed.Strengths, result.Strengths)
	require.Equal(t, parsed.Improvements, result.Improvements)
}

func TestParseGradeWithoutFeedbackSections(t *testing.T) {
	parsed, err := ParseGrade("Grade: 9/10\nFeedback: Excellent. Strengths are obvious throughout.\n- stray bullet")
	require.NoError(t, err)
	require.Nil(t, parsed.Strengths)
	require.Nil(t, parsed.Improvements)
}

func TestParseResponseUnknownModelPricing(t *testing.T) {
	result, err := ParseResponse("Grade: 8/10\nFeedback: ok", "gpt-unknown", 100, 10, testPricing())
	require.ErrorIs(t, err, ErrUnknownModelPricing)
	require.Equal(t, models.GradingResult{}, result)

	var pricingErr *UnknownModelPricingError
	require.ErrorAs(t, err, &pricingErr)
	require.Equal(t, "gpt-unknown", pricingErr.ModelID)
}

func TestComputeCost(t *testing.T) {
	cost, err := ComputeCost(testPricing(), "claude-test", 450, 180)
	require.NoError(t, err)
	require.InDelta(t, 0.00405, cost, 1e-12)

	zero, err := ComputeCost(testPricing(), "claude-test", 0, 0)
	require.NoError(t, err)
	require.Zero(t, zero)
}

func TestResponseParseErrorKeepsResponse(t *testing.T) {
	_, err := ParseGrade("I think this deserves a B.")

	var parseErr *ResponseParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "I think this deserves a B.", parseErr.Response)
	require.Contains(t, parseErr.Error(), "marker")
}
