package locator

import "github.com/roach88/flowgen/internal/ir"

// Classifier labels locator keys. *classify.Classifier implements it.
type Classifier interface {
	Classify(key string) ir.FieldClass
}

// StepsFromTable derives a synthetic flow from a bare locator table, one step
// per key in table order: Interactive keys are filled, ActionOnly keys are
// clicked.
func StepsFromTable(table *ir.LocatorTable, c Classifier) []ir.RecordedStep {
	entries := table.Entries()
	steps := make([]ir.RecordedStep, len(entries))
	for i, e := range entries {
		action := ir.ActionFill
		if c.Classify(e.Key) == ir.ActionOnly {
			action = ir.ActionClick
		}
		steps[i] = ir.RecordedStep{
			Ordinal:     i + 1,
			Action:      action,
			TargetLabel: e.Key,
			Locator:     e.Expression,
		}
	}
	return steps
}

// BindTable binds the synthetic flow of StepsFromTable to the table as is.
// Keys are not re-derived, so the table read from a module is emitted
// unchanged.
func BindTable(table *ir.LocatorTable, c Classifier) (*Result, error) {
	if table == nil || table.Len() == 0 {
		return nil, &EmptyFlowError{}
	}

	steps := StepsFromTable(table, c)
	bindings := make([]Binding, len(steps))
	for i, step := range steps {
		e, _ := table.Get(step.TargetLabel)
		bindings[i] = Binding{
			Step:       step,
			Key:        e.Key,
			Base:       e.Base,
			Occurrence: e.Occurrence,
		}
	}
	return &Result{Table: table, Bindings: bindings}, nil
}
