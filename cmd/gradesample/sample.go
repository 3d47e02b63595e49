package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/noah-isme/gema-grader/internal/models"
)

// sampleSubmission is the on-disk shape of a sample file. The rubric is either
// free text or a structured rubric.
type sampleSubmission struct {
	AssignmentID      string          `json:"assignment_id"`
	Question          string          `json:"question"`
	Rubric            json.RawMessage `json:"rubric"`
	StudentResponse   string          `json:"student_response"`
	PromptVersion     string          `json:"prompt_version"`
	CourseContext     string          `json:"course_context"`
	AdditionalContext string          `json:"additional_context"`
}

func loadSample(path string) (sampleSubmission, models.Submission, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sampleSubmission{}, models.Submission{}, fmt.Errorf("read sample %s: %w", path, err)
	}

	var sample sampleSubmission
	if err := json.Unmarshal(raw, &sample); err != nil {
		return sampleSubmission{}, models.Submission{}, fmt.Errorf("decode sample %s: %w", path, err)
	}

	rubric, err := rubricText(sample.Rubric)
	if err != nil {
		return sampleSubmission{}, models.Submission{}, fmt.Errorf("decode rubric in %s: %w", path, err)
	}

	return sample, models.Submission{
		Question:          sample.Question,
		Rubric:            rubric,
		StudentResponse:   sample.StudentResponse,
		CourseContext:     sample.CourseContext,
		AdditionalContext: sample.AdditionalContext,
	}, nil
}

func rubricText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", errors.New("rubric is missing")
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return "", err
		}
		return text, nil
	}

	var rubric models.Rubric
	if err := json.Unmarshal(trimmed, &rubric); err != nil {
		return "", err
	}
	return rubric.Format(), nil
}
