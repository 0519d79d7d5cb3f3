package school

import "github.com/jattu8602/presentsirweb-sub001/internal/validator"

// Wizard holds the client-side state of the multi-step signup form. It
// never advances past a step whose fields are invalid.
type Wizard struct {
	v    *validator.Validator
	step Step

	Data RegisterRequest
}

func NewWizard(v *validator.Validator) *Wizard {
	return &Wizard{v: v, step: StepBasic}
}

func (w *Wizard) Step() Step {
	return w.step
}

func (w *Wizard) Done() bool {
	return w.step == StepComplete
}

// Next validates the current step and moves forward. On failure the step is
// unchanged and the returned error carries the field messages.
func (w *Wizard) Next() error {
	if w.Done() {
		return nil
	}
	if err := ValidateStep(w.v, w.step, &w.Data); err != nil {
		return err
	}
	w.step = w.step.Next()
	return nil
}

func (w *Wizard) Back() {
	if w.step != StepBasic {
		w.step = w.step.Prev()
	}
}

// Submission returns the collected request once every step has passed.
func (w *Wizard) Submission() (*RegisterRequest, bool) {
	if !w.Done() {
		return nil, false
	}
	req := w.Data
	return &req, true
}
