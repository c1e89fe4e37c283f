package ingest

import (
	"errors"
	"fmt"

	"recipe-extractor/internal/pkg/common"
)

// ErrNotFound 查無食譜
var ErrNotFound = errors.New("recipe not found")

// InsufficientIngredientsError 過濾後有效食材不足，不予寫入
type InsufficientIngredientsError struct {
	Valid   int `json:"valid"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

func (e *InsufficientIngredientsError) Error() string {
	return fmt.Sprintf("recipe has too few valid ingredients after filtering (%d valid, %d skipped out of %d total)",
		e.Valid, e.Skipped, e.Total)
}

// Unwrap 讓 errors.Is(err, common.ErrTooFewIngredients) 成立並對應 422
func (e *InsufficientIngredientsError) Unwrap() error {
	return common.ErrTooFewIngredients
}

// IsInsufficient 是否為食材不足錯誤
func IsInsufficient(err error) bool {
	var ie *InsufficientIngredientsError
	return errors.As(err, &ie)
}
