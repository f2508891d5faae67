// Package coverage derives variant/test completeness metrics for a
// component from its defined variants and existing stories. Pure, no I/O.
package coverage

import (
	"fmt"
	"math"

	"github.com/marcus/driftsync/internal/models"
)

// highVariantCountThreshold flags unusually complex components. A heuristic
// complexity signal, not a hard limit.
const highVariantCountThreshold = 20

// Input is the per-component material the calculator works over.
type Input struct {
	ComponentID     string         `json:"component_id"`
	DefinedVariants []string       `json:"defined_variants"`
	ExistingStories []models.Story `json:"existing_stories"`
}

// CalculateVariantCoverage returns the percentage of defined variants with a
// matching story, rounded to the nearest integer. Zero defined variants
// means there is nothing to miss, so coverage is 100.
func CalculateVariantCoverage(definedVariants []string, stories []models.Story) int {
	if len(definedVariants) == 0 {
		return 100
	}
	storied := storySet(stories)
	covered := 0
	for _, v := range definedVariants {
		if storied[v] {
			covered++
		}
	}
	return int(math.Round(float64(covered) / float64(len(definedVariants)) * 100))
}

// FindMissingVariants returns defined variants with no matching story, in
// definition order.
func FindMissingVariants(definedVariants []string, stories []models.Story) []string {
	storied := storySet(stories)
	missing := []string{}
	for _, v := range definedVariants {
		if !storied[v] {
			missing = append(missing, v)
		}
	}
	return missing
}

// FindMissingTests returns, for each existing story, the test types it
// lacks, in the fixed visual/interaction/a11y order. Fully tested stories
// are omitted.
func FindMissingTests(stories []models.Story) []models.MissingTest {
	missing := []models.MissingTest{}
	for _, story := range stories {
		present := make(map[models.TestType]bool, len(story.TestTypes))
		for _, t := range story.TestTypes {
			present[t] = true
		}
		var lacking []models.TestType
		for _, t := range models.AllTestTypes() {
			if !present[t] {
				lacking = append(lacking, t)
			}
		}
		if len(lacking) > 0 {
			missing = append(missing, models.MissingTest{
				VariantName:      story.VariantName,
				MissingTestTypes: lacking,
			})
		}
	}
	return missing
}

// GenerateWarnings flags anomalies: orphaned stories (a story for an
// undefined variant), stories existing with zero defined variants, and
// unusually high variant counts.
func GenerateWarnings(definedVariants []string, stories []models.Story) []string {
	warnings := []string{}

	if len(definedVariants) == 0 && len(stories) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d stories exist but no variants are defined", len(stories)))
	}

	defined := make(map[string]bool, len(definedVariants))
	for _, v := range definedVariants {
		defined[v] = true
	}
	for _, story := range stories {
		if len(definedVariants) > 0 && !defined[story.VariantName] {
			warnings = append(warnings, fmt.Sprintf("orphaned story %q: no such variant is defined", story.VariantName))
		}
	}

	if len(definedVariants) > highVariantCountThreshold {
		warnings = append(warnings, fmt.Sprintf("unusually high variant count (%d > %d)", len(definedVariants), highVariantCountThreshold))
	}

	return warnings
}

// Compute composes the full coverage report for one component.
func Compute(in Input) models.CoverageResult {
	return models.CoverageResult{
		ComponentID:        in.ComponentID,
		VariantCoveragePct: CalculateVariantCoverage(in.DefinedVariants, in.ExistingStories),
		MissingVariants:    FindMissingVariants(in.DefinedVariants, in.ExistingStories),
		MissingTests:       FindMissingTests(in.ExistingStories),
		Warnings:           GenerateWarnings(in.DefinedVariants, in.ExistingStories),
	}
}

func storySet(stories []models.Story) map[string]bool {
	set := make(map[string]bool, len(stories))
	for _, s := range stories {
		set[s.VariantName] = true
	}
	return set
}
