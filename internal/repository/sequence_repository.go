package repository

import (
	"context"
	"fmt"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository hands out yearly document numbers such as INV/2024/00001
type SequenceRepository interface {
	Next(ctx context.Context, code string, year int) (string, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next formats and advances the counter of code for year. Each year keeps
// its own row, so numbers for a backdated document continue that year's run.
func (r *sequenceRepository) Next(ctx context.Context, code string, year int) (string, error) {
	prefix, ok := models.SequencePrefixes[code]
	if !ok {
		return "", fmt.Errorf("unknown sequence %q", code)
	}

	var number string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.Sequence{Code: code, Year: year, Prefix: prefix, Padding: 5, Next: 1}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var seq models.Sequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ? AND year = ?", code, year).
			First(&seq).Error
		if err != nil {
			return err
		}

		number = fmt.Sprintf("%s/%04d/%0*d", seq.Prefix, seq.Year, seq.Padding, seq.Next)
		return tx.Model(&seq).Update("next", seq.Next+1).Error
	})
	if err != nil {
		return "", err
	}
	return number, nil
}
