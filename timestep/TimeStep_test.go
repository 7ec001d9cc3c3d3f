package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEndTypeOnlyOnLast(t *testing.T) {
	step := New(Mid, -1.0, 0.99, mat.NewVecDense(1, nil), 3)
	step.SetEnd(Timeout)
	if step.EndType() != Unknown {
		t.Errorf("mid step should report Unknown end, got %v", step.EndType())
	}

	step.StepType = Last
	if step.EndType() != Timeout {
		t.Errorf("last step end: want %v, have %v", Timeout, step.EndType())
	}
	if !step.Last() || step.First() || step.Mid() {
		t.Error("step type predicates disagree with StepType")
	}
}
