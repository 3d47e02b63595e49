package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-grader/internal/models"
)

// GradingResultFilter allows narrowing result log queries.
type GradingResultFilter struct {
	ModelID       *string
	PromptVersion *string
	Limit         int
}

// GradingResultRepository defines data operations for the grading result log.
type GradingResultRepository interface {
	Create(ctx context.Context, result *models.GradingResult) error
	GetByRequestID(ctx context.Context, requestID string) (models.GradingResult, error)
	List(ctx context.Context, filter GradingResultFilter) ([]models.GradingResult, error)
}

type gradingResultRepository struct {
	db *gorm.DB
}

// NewGradingResultRepository instantiates the repository.
func NewGradingResultRepository(db *gorm.DB) GradingResultRepository {
	return &gradingResultRepository{db: db}
}

func (r *gradingResultRepository) Create(ctx context.Context, result *models.GradingResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *gradingResultRepository) GetByRequestID(ctx context.Context, requestID string) (models.GradingResult, error) {
	var result models.GradingResult
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&result).Error; err != nil {
		return models.GradingResult{}, err
	}
	return result, nil
}

func (r *gradingResultRepository) List(ctx context.Context, filter GradingResultFilter) ([]models.GradingResult, error) {
	query := r.db.WithContext(ctx).Model(&models.GradingResult{})

	if filter.ModelID != nil {
		query = query.Where("model_id = ?", *filter.ModelID)
	}

	if filter.PromptVersion != nil {
		query = query.Where("prompt_version = ?", *filter.PromptVersion)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var results []models.GradingResult
	if err := query.Order("graded_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
