package model

import "gorm.io/gorm"

const (
	TestTypeReading   = "reading"
	TestTypeWriting   = "writing"
	TestTypeListening = "listening"
)

// GeneratedTest archives one accepted generation run: the short test id, the
// test type, the requested parameters and the full validated JSON payload.
// Only tests that passed validation are ever written here.
type GeneratedTest struct {
	gorm.Model
	TestID         string `gorm:"uniqueIndex;size:32"`
	TestType       string `gorm:"index;size:16"`
	Module         string `gorm:"size:32"`
	DifficultyBand string `gorm:"size:8"`
	Payload        []byte `gorm:"type:jsonb"`
}
