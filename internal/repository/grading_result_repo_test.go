package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-grader/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GradingResult{}))
	return db
}

func TestGradingResultRepositoryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradingResultRepository(db)

	gradedAt := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	result := models.GradingResult{
		RequestID:     "11111111-2222-3333-4444-555555555555",
		Grade:         7,
		TotalPoints:   10,
		Feedback:      "Good but missing causes.",
		Strengths:     []string{"Clear definition"},
		Improvements:  []string{"Name the causes", "Give an example"},
		InputTokens:   450,
		OutputTokens:  180,
		TotalTokens:   630,
		CostUSD:       0.00405,
		PromptVersion: "v1_basic",
		ModelID:       "anthropic.claude-3-5-sonnet-20241022-v2:0",
		ModelName:     "Claude 3.5 Sonnet v2",
		MaxTokens:     1000,
		GradedAt:      gradedAt,
	}
	require.NoError(t, repo.Create(context.Background(), &result))
	require.NotZero(t, result.ID)

	stored, err := repo.GetByRequestID(context.Background(), result.RequestID)
	require.NoError(t, err)
	require.Equal(t, result.Feedback, stored.Feedback)
	require.Equal(t, result.Strengths, stored.Strengths)
	require.Equal(t, result.Improvements, stored.Improvements)
	require.Equal(t, result.TotalTokens, stored.TotalTokens)
	require.InDelta(t, result.CostUSD, stored.CostUSD, 1e-12)
	require.True(t, gradedAt.Equal(stored.GradedAt))

	_, err = repo.GetByRequestID(context.Background(), "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGradingResultRepositoryListFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradingResultRepository(db)

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	rows := []models.GradingResult{
		{RequestID: "a", Grade: 5, TotalPoints: 10, PromptVersion: "v1_basic", ModelID: "m1", GradedAt: base.Add(-2 * time.Hour)},
		{RequestID: "b", Grade: 6, TotalPoints: 10, PromptVersion: "v2_strict", ModelID: "m1", GradedAt: base.Add(-1 * time.Hour)},
		{RequestID: "c", Grade: 7, TotalPoints: 10, PromptVersion: "v1_basic", ModelID: "m2", GradedAt: base},
	}
	for i := range rows {
		require.NoError(t, repo.Create(context.Background(), &rows[i]))
	}

	all, err := repo.List(context.Background(), GradingResultFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c", all[0].RequestID, "expected newest record first")

	model := "m1"
	byModel, err := repo.List(context.Background(), GradingResultFilter{ModelID: &model})
	require.NoError(t, err)
	require.Len(t, byModel, 2)

	version := "v1_basic"
	limited, err := repo.List(context.Background(), GradingResultFilter{PromptVersion: &version, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "c", limited[0].RequestID)
}

func TestGradingResultRepositoryRejectsDuplicateRequestID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradingResultRepository(db)

	first := models.GradingResult{RequestID: "dup", Grade: 1, TotalPoints: 2, GradedAt: time.Now()}
	second := models.GradingResult{RequestID: "dup", Grade: 2, TotalPoints: 2, GradedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), &first))
	require.Error(t, repo.Create(context.Background(), &second))
}
