package repository

import (
	"github.com/anyexamai/backend/internal/model"
	"gorm.io/gorm"
)

// maxTopicHistory caps the retained topic history; older rows are pruned.
const maxTopicHistory = 1000

type TopicRepository interface {
	// Recent returns up to limit most recently used topics, oldest first.
	Recent(limit int) ([]string, error)
	// All returns the full retained history, oldest first.
	All() ([]string, error)
	Add(topics []string) error
	Clear() error
	Count() (int64, error)
}

type topicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) Recent(limit int) ([]string, error) {
	var topics []string
	err := r.db.Model(&model.UsedTopic{}).
		Order("created_at DESC").
		Limit(limit).
		Pluck("topic", &topics).Error
	if err != nil {
		return nil, err
	}
	// Reverse so callers see oldest-first, the order prompts embed them in.
	for i, j := 0, len(topics)-1; i < j; i, j = i+1, j-1 {
		topics[i], topics[j] = topics[j], topics[i]
	}
	return topics, nil
}

func (r *topicRepository) All() ([]string, error) {
	return r.Recent(maxTopicHistory)
}

func (r *topicRepository) Add(topics []string) error {
	if len(topics) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range topics {
			if err := tx.Create(&model.UsedTopic{Topic: t}).Error; err != nil {
				return err
			}
		}
		// Prune anything beyond the history cap.
		var count int64
		if err := tx.Model(&model.UsedTopic{}).Count(&count).Error; err != nil {
			return err
		}
		if count > maxTopicHistory {
			var cutoff model.UsedTopic
			if err := tx.Order("created_at DESC").Offset(maxTopicHistory - 1).First(&cutoff).Error; err != nil {
				return err
			}
			return tx.Unscoped().
				Where("created_at < ?", cutoff.CreatedAt).
				Delete(&model.UsedTopic{}).Error
		}
		return nil
	})
}

func (r *topicRepository) Clear() error {
	return r.db.Unscoped().Where("1 = 1").Delete(&model.UsedTopic{}).Error
}

func (r *topicRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.UsedTopic{}).Count(&count).Error
	return count, err
}
