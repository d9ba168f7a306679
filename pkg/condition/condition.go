// Package condition defines the rule seam used to switch field requirements on
// and off at submit time (for example "the cover is only required when the
// account does not upload through a cloud link").
package condition

// Evaluator decides whether a rule holds for the supplied context.
type Evaluator interface {
	Eval(rule string, ctx Context) (bool, error)
}

// Context provides rule inputs. Values holds form values keyed by
// "<section>.<field>"; Extras carries caller-supplied flags reachable through
// the "extras." prefix. Entry holds the fields of the entry being checked,
// reachable through the "entry." prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
	Entry  map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(rule string, ctx Context) (bool, error) {
	return fn(rule, ctx)
}
