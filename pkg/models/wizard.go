package models

import (
	"fmt"
	"strings"
)

// WizardStep is one stage of the quest-creation wizard.
type WizardStep string

const (
	StepGuide     WizardStep = "guide"
	StepBasics    WizardStep = "basics"
	StepStandards WizardStep = "standards"
	StepTerms     WizardStep = "terms"
	StepPreview   WizardStep = "preview"
	StepPayment   WizardStep = "payment"
)

// WizardSteps is the fixed step ordering. Forward and backward navigation
// only ever moves one position along this slice.
var WizardSteps = []WizardStep{
	StepGuide,
	StepBasics,
	StepStandards,
	StepTerms,
	StepPreview,
	StepPayment,
}

// Index returns the ordinal of the step, or -1 if the step is unknown.
func (s WizardStep) Index() int {
	for i, step := range WizardSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known steps.
func (s WizardStep) Valid() bool {
	return s.Index() >= 0
}

// Next returns the following step and true, or s and false at the last step.
func (s WizardStep) Next() (WizardStep, bool) {
	i := s.Index()
	if i < 0 || i == len(WizardSteps)-1 {
		return s, false
	}
	return WizardSteps[i+1], true
}

// Prev returns the preceding step and true, or s and false at the first step.
func (s WizardStep) Prev() (WizardStep, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return WizardSteps[i-1], true
}

// Label returns the upper-case display name (e.g. "TERMS").
func (s WizardStep) Label() string {
	return strings.ToUpper(string(s))
}

// ParseWizardStep converts a case-insensitive name into a WizardStep.
func ParseWizardStep(name string) (WizardStep, error) {
	step := WizardStep(strings.ToLower(strings.TrimSpace(name)))
	if !step.Valid() {
		return "", fmt.Errorf("unknown wizard step %q", name)
	}
	return step, nil
}
