package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/gema-grader/internal/models"
)

// ErrResponseParse indicates the model output does not follow the grade format.
var ErrResponseParse = errors.New("model response does not match grade format")

// ResponseParseError explains why a model response was rejected.
type ResponseParseError struct {
	Reason   string
	Response string
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("parse model response: %s", e.Reason)
}

// Is makes every ResponseParseError match ErrResponseParse.
func (e *ResponseParseError) Is(target error) bool {
	return target == ErrResponseParse
}

const (
	gradeMarkerLiteral = "Grade:"
	maxLoggedResponse  = 2000
)

var (
	gradeLinePattern = regexp.MustCompile(`^Grade:\s*(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)\s*$`)
	feedbackPrefix   = regexp.MustCompile(`^Feedback:[ \t]*`)
	sectionHeading   = regexp.MustCompile(`(?i)^(?:\*\*)?(strengths|improvements|areas for improvement)(?:\*\*)?\s*:(?:\*\*)?\s*$`)
	bulletItem       = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+(.+)$`)
)

// ParsedGrade is the grade and feedback extracted from a model response.
type ParsedGrade struct {
	Grade        float64
	TotalPoints  float64
	Feedback     string
	Strengths    []string
	Improvements []string
}

// ParseGrade extracts "Grade: N/M" from the first non-blank line and treats the
// rest of the response as feedback. It never guesses a grade.
func ParseGrade(text string) (ParsedGrade, error) {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first == -1 {
		return ParsedGrade{}, parseFailure("empty response", text)
	}

	gradeLine := strings.TrimSpace(lines[first])
	if !strings.HasPrefix(gradeLine, gradeMarkerLiteral) {
		return ParsedGrade{}, parseFailure(fmt.Sprintf("first line %q has no %q marker", truncate(gradeLine, 80), gradeMarkerLiteral), text)
	}

	match := gradeLinePattern.FindStringSubmatch(gradeLine)
	if match == nil {
		return ParsedGrade{}, parseFailure(fmt.Sprintf("grade line %q is not of the form \"Grade: N/M\"", truncate(gradeLine, 80)), text)
	}

	grade, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return ParsedGrade{}, parseFailure(fmt.Sprintf("grade %q is not numeric", match[1]), text)
	}
	total, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return ParsedGrade{}, parseFailure(fmt.Sprintf("total %q is not numeric", match[2]), text)
	}
	if total <= 0 {
		return ParsedGrade{}, parseFailure("total points must be positive", text)
	}
	if grade > total {
		return ParsedGrade{}, parseFailure(fmt.Sprintf("grade %s exceeds total %s", match[1], match[2]), text)
	}

	feedback := strings.TrimSpace(strings.Join(lines[first+1:], "\n"))
	feedback = strings.TrimSpace(feedbackPrefix.ReplaceAllString(feedback, ""))

	strengths, improvements := feedbackSections(feedback)

	return ParsedGrade{
		Grade:        grade,
		TotalPoints:  total,
		Feedback:     feedback,
		Strengths:    strengths,
		Improvements: improvements,
	}, nil
}

// feedbackSections collects the bullet items listed under optional
// "Strengths:" and "Improvements:" headings. The feedback text itself is kept whole.
func feedbackSections(feedback string) (strengths, improvements []string) {
	var current *[]string
	for _, raw := range strings.Split(feedback, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if match := sectionHeading.FindStringSubmatch(line); match != nil {
			if strings.EqualFold(match[1], "strengths") {
				current = &strengths
			} else {
				current = &improvements
			}
			continue
		}
		if current == nil {
			continue
		}
		if item := bulletItem.FindStringSubmatch(line); item != nil {
			*current = append(*current, strings.TrimSpace(item[1]))
			continue
		}
		current = nil
	}
	return strengths, improvements
}

// ParseResponse turns a raw completion plus token usage into a grading result.
// The prompt version, model name and sampling parameters are filled in by the engine.
func ParseResponse(text, modelID string, inputTokens, outputTokens int64, pricing models.PricingTable) (models.GradingResult, error) {
	parsed, err := ParseGrade(text)
	if err != nil {
		return models.GradingResult{}, err
	}

	cost, err := ComputeCost(pricing, modelID, inputTokens, outputTokens)
	if err != nil {
		return models.GradingResult{}, err
	}

	return models.GradingResult{
		Grade:        parsed.Grade,
		TotalPoints:  parsed.TotalPoints,
		Feedback:     parsed.Feedback,
		Strengths:    parsed.Strengths,
		Improvements: parsed.Improvements,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      cost,
		ModelID:      modelID,
	}, nil
}

func parseFailure(reason, response string) error {
	return &ResponseParseError{Reason: reason, Response: truncate(response, maxLoggedResponse)}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
