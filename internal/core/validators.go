package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/valter-silva-au/questforge/pkg/models"
)

// Validation messages shown when a gated step refuses to advance.
const (
	MsgCompleteBasics    = "Please complete title, subject and description."
	MsgCompleteStandards = "Please complete deliverables and acceptance criteria."
	MsgCompleteTerms     = "Please complete budget, deadline and IP rights."
	MsgBudgetPositive    = "Budget must be greater than 0."
)

// ValidationError reports why a step's gate rejected the draft.
type ValidationError struct {
	Step    models.WizardStep
	Fields  []models.DraftField
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s step: %s", e.Step, e.Message)
}

// StepValidator checks a draft for one step. It returns nil when the step's
// gate passes.
type StepValidator func(d models.QuestDraft) *ValidationError

// StepValidators holds the gate for every wizard step.
type StepValidators struct {
	byStep      map[models.WizardStep]StepValidator
	parseBudget BudgetParser
}

// NewStepValidators builds the per-step gates. parseBudget decides how the
// TERMS step reads the budget; nil selects ParseBudgetPrefix.
func NewStepValidators(parseBudget BudgetParser) *StepValidators {
	if parseBudget == nil {
		parseBudget = ParseBudgetPrefix
	}
	return &StepValidators{
		parseBudget: parseBudget,
		byStep: map[models.WizardStep]StepValidator{
			models.StepBasics:    ValidateBasics,
			models.StepStandards: ValidateStandards,
			models.StepTerms: func(d models.QuestDraft) *ValidationError {
				return ValidateTerms(d, parseBudget)
			},
		},
	}
}

// Validate runs the gate for step. Ungated steps always pass.
func (v *StepValidators) Validate(step models.WizardStep, d models.QuestDraft) *ValidationError {
	check, ok := v.byStep[step]
	if !ok {
		return nil
	}
	return check(d)
}

// Budget parses a budget string the same way the TERMS gate does.
func (v *StepValidators) Budget(s string) float64 {
	return v.parseBudget(s)
}

// ValidateAll runs every gate in step order and returns the first failure.
func (v *StepValidators) ValidateAll(d models.QuestDraft) *ValidationError {
	for _, step := range models.WizardSteps {
		if verr := v.Validate(step, d); verr != nil {
			return verr
		}
	}
	return nil
}

// ValidateBasics requires title, subject and description.
func ValidateBasics(d models.QuestDraft) *ValidationError {
	missing := blankFields(d, models.FieldTitle, models.FieldSubject, models.FieldDescription)
	if len(missing) > 0 {
		return &ValidationError{Step: models.StepBasics, Fields: missing, Message: MsgCompleteBasics}
	}
	return nil
}

// ValidateStandards requires deliverables and acceptance criteria.
func ValidateStandards(d models.QuestDraft) *ValidationError {
	missing := blankFields(d, models.FieldDeliverables, models.FieldAcceptanceCriteria)
	if len(missing) > 0 {
		return &ValidationError{Step: models.StepStandards, Fields: missing, Message: MsgCompleteStandards}
	}
	return nil
}

// ValidateTerms requires budget, deadline and IP rights, and a budget above
// zero. A budget that does not parse as a number counts as missing, as does
// an IP rights value outside AllIPRights. A nil parseBudget selects
// ParseBudgetPrefix.
func ValidateTerms(d models.QuestDraft, parseBudget BudgetParser) *ValidationError {
	if parseBudget == nil {
		parseBudget = ParseBudgetPrefix
	}
	missing := blankFields(d, models.FieldBudget, models.FieldDeadline)
	if !d.IPRights.Valid() {
		missing = append(missing, models.FieldIPRights)
	}

	budget := math.NaN()
	if strings.TrimSpace(d.Budget) != "" {
		budget = parseBudget(d.Budget)
		if math.IsNaN(budget) {
			missing = append([]models.DraftField{models.FieldBudget}, missing...)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Step: models.StepTerms, Fields: missing, Message: MsgCompleteTerms}
	}

	if !(budget > 0) || math.IsInf(budget, 0) {
		return &ValidationError{
			Step:    models.StepTerms,
			Fields:  []models.DraftField{models.FieldBudget},
			Message: MsgBudgetPositive,
		}
	}
	return nil
}

func blankFields(d models.QuestDraft, fields ...models.DraftField) []models.DraftField {
	var missing []models.DraftField
	for _, f := range fields {
		if strings.TrimSpace(d.Get(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
