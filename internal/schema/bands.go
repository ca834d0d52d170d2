// Package schema holds the typed data model for generated IELTS tests:
// difficulty bands, the question variants, the per-test-type trees and the
// evaluation result shape. Objects here are plain data; validation lives in
// the service layer.
package schema

import "math"

// ValidBands are the accepted IELTS difficulty bands, 0.5 increments.
var ValidBands = []string{"5.0", "5.5", "6.0", "6.5", "7.0", "7.5", "8.0", "8.5", "9.0"}

// ValidModules are the accepted IELTS module names.
var ValidModules = []string{"Academic", "General Training"}

const (
	ModuleAcademic        = "Academic"
	ModuleGeneralTraining = "General Training"
)

func IsValidBand(band string) bool {
	for _, b := range ValidBands {
		if b == band {
			return true
		}
	}
	return false
}

func IsValidModule(module string) bool {
	for _, m := range ValidModules {
		if m == module {
			return true
		}
	}
	return false
}

// RoundToHalfBand snaps a band score to the nearest 0.5 increment.
func RoundToHalfBand(v float64) float64 {
	return math.Round(v*2) / 2
}
