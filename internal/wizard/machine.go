// -----------------------------------------------------------------------
// Wizard State Machine - Step transitions with forward gating
// -----------------------------------------------------------------------

package wizard

import (
	"fmt"

	"github.com/siderealab/siderea/internal/models"
)

// Machine is the wizard state machine for one chart creation/edit session.
// Forward movement is gated by the step validator; backward movement is
// unconditional so the user can freely revisit earlier steps.
//
// A Machine is owned by exactly one wizard session; the owning service
// serializes access to it.
type Machine struct {
	step      models.WizardStep
	form      *models.WizardFormState
	validator *Validator
}

// NewMachine creates a machine at the first step with the given form state.
func NewMachine(form *models.WizardFormState, validator *Validator) *Machine {
	return &Machine{
		step:      models.FirstStep,
		form:      form,
		validator: validator,
	}
}

// Restore rebuilds a machine from a persisted draft at the given step.
func Restore(step models.WizardStep, form *models.WizardFormState, validator *Validator) (*Machine, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("invalid wizard step: %d", step)
	}
	return &Machine{
		step:      step,
		form:      form,
		validator: validator,
	}, nil
}

// Step returns the current step.
func (m *Machine) Step() models.WizardStep {
	return m.step
}

// Form returns the form state owned by this machine.
func (m *Machine) Form() *models.WizardFormState {
	return m.form
}

// Next validates the current step and advances on success. On failure the
// step is unchanged and the result carries the inline field errors.
func (m *Machine) Next() *models.ValidationResult {
	result := m.validator.ValidateStep(m.step, m.form)
	if !result.Valid {
		return result
	}
	if m.step < models.LastStep {
		m.step++
	}
	return result
}

// Previous moves back one step, unconditionally, flooring at the first step.
// No validation on backward movement: the user must be able to revisit
// earlier steps without being blocked by current invalidity.
func (m *Machine) Previous() models.WizardStep {
	if m.step > models.FirstStep {
		m.step--
	}
	return m.step
}

// JumpTo moves directly to an earlier (or the current) step. Skipping ahead
// is not permitted; the review step links back through this.
func (m *Machine) JumpTo(step models.WizardStep) error {
	if !step.Valid() {
		return fmt.Errorf("invalid wizard step: %d", step)
	}
	if step > m.step {
		return fmt.Errorf("cannot jump forward from step %d to step %d", m.step, step)
	}
	m.step = step
	return nil
}

// ReadyToSubmit reports whether submission is allowed: the machine must be at
// the review step with every input step valid.
func (m *Machine) ReadyToSubmit() *models.ValidationResult {
	if m.step != models.LastStep {
		return &models.ValidationResult{
			Valid:       false,
			FieldErrors: models.FieldErrors{"step": fmt.Sprintf("submission requires the review step, currently at step %d", m.step)},
		}
	}
	return m.validator.ValidateAll(m.form)
}
