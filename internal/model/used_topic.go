package model

import "gorm.io/gorm"

// UsedTopic records a reading-passage topic that has already been served, so
// later generations can be steered away from it.
type UsedTopic struct {
	gorm.Model
	Topic string `gorm:"size:255"`
}
