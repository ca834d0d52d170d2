package repository

import (
	"github.com/anyexamai/backend/internal/model"
	"gorm.io/gorm"
)

type ArchiveRepository interface {
	Create(test *model.GeneratedTest) error
	FindByTestID(testID string) (*model.GeneratedTest, error)
	FindAllByType(testType string) ([]model.GeneratedTest, error)
}

type archiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

func (r *archiveRepository) Create(test *model.GeneratedTest) error {
	return r.db.Create(test).Error
}

func (r *archiveRepository) FindByTestID(testID string) (*model.GeneratedTest, error) {
	var test model.GeneratedTest
	err := r.db.Where("test_id = ?", testID).First(&test).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *archiveRepository) FindAllByType(testType string) ([]model.GeneratedTest, error) {
	var tests []model.GeneratedTest
	err := r.db.
		Select("id", "created_at", "test_id", "test_type", "module", "difficulty_band").
		Where("test_type = ?", testType).
		Order("created_at DESC").
		Find(&tests).Error
	return tests, err
}
