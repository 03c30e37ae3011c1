// Package wizard holds the step machine of the listing intake/edit flow.
// Pure step arithmetic: transitions never touch persisted data.
package wizard

import (
	"errors"

	"immoci-backend/internal/domain"
)

// Wizard steps.
const (
	StepInfosGenerales   = 1
	StepLocalisation     = 2
	StepCaracteristiques = 3
	StepDocuments        = 4
	StepAccessibilite    = 5
	StepCommodites       = 6
	StepConditionsBonus  = 7
	StepMedias           = 8
	StepRecapitulatif    = 9

	FirstStep = StepInfosGenerales
	LastStep  = StepRecapitulatif
)

var stepNames = map[int]string{
	StepInfosGenerales:   "informations_generales",
	StepLocalisation:     "localisation",
	StepCaracteristiques: "caracteristiques",
	StepDocuments:        "documents",
	StepAccessibilite:    "accessibilite",
	StepCommodites:       "commodites",
	StepConditionsBonus:  "conditions_bonus",
	StepMedias:           "medias",
	StepRecapitulatif:    "recapitulatif",
}

// ErrSkippedStep is returned by GoTo when the target step is inapplicable
// to the listing type.
var ErrSkippedStep = errors.New("etape non applicable a ce type de bien")

// StepName returns the wire name of a step, or "" for an unknown step.
func StepName(step int) string { return stepNames[step] }

// SkipSet returns the steps inapplicable to the given listing type. Terrain
// listings skip features, documents and accessibility.
func SkipSet(typeBien string) map[int]bool {
	if typeBien == domain.TypeTerrain {
		return map[int]bool{
			StepCaracteristiques: true,
			StepDocuments:        true,
			StepAccessibilite:    true,
		}
	}
	return nil
}

// Skipped reports whether step is in the skip set for typeBien.
func Skipped(step int, typeBien string) bool {
	return SkipSet(typeBien)[step]
}

// Advance computes the next step from current, jumping forward past any
// skipped step. Saturates at the last step.
func Advance(current int, typeBien string) int {
	next := current + 1
	for next < LastStep && Skipped(next, typeBien) {
		next++
	}
	if next > LastStep {
		return LastStep
	}
	return next
}

// Retreat is the reverse of Advance. Saturates at the first step.
func Retreat(current int, typeBien string) int {
	prev := current - 1
	for prev > FirstStep && Skipped(prev, typeBien) {
		prev--
	}
	if prev < FirstStep {
		return FirstStep
	}
	return prev
}

// GoTo validates a direct jump. A jump to a skipped or out-of-range step is
// rejected and the current step is returned unchanged.
func GoTo(current, target int, typeBien string) (int, error) {
	if target < FirstStep || target > LastStep {
		return current, ErrSkippedStep
	}
	if Skipped(target, typeBien) {
		return current, ErrSkippedStep
	}
	return target, nil
}

// Sequence returns the full reachable step sequence for a listing type,
// starting at the first step.
func Sequence(typeBien string) []int {
	seq := []int{FirstStep}
	cur := FirstStep
	for cur < LastStep {
		cur = Advance(cur, typeBien)
		seq = append(seq, cur)
	}
	return seq
}

// StepValidator reports whether the accumulated payload satisfies a step.
// Used by Resume to find where an interrupted edit left off.
type StepValidator func(step int) bool

// Resume returns the greatest reachable step such that every prior
// reachable step validates. A fresh listing resumes at the first step.
func Resume(typeBien string, valid StepValidator) int {
	cur := FirstStep
	for cur < LastStep {
		if !valid(cur) {
			return cur
		}
		cur = Advance(cur, typeBien)
	}
	return cur
}
