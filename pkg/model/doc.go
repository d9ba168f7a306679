// Package model defines the declarative schema consumed by the form controller
// and the renderers. A Form is an ordered list of Sections; every Section holds
// the FieldSchema set shared by all of its repeated entries together with the
// entry bounds (MinCount, StartAmount, MaxCount).
//
// Validators are plain values injected through FieldSchema.Validator, so two
// forms never share hidden state through package-level patterns. Field values
// travel as the tagged Value union, dispatched by FieldSchema.Kind rather than
// by runtime type inspection.
package model
